package model

import "time"

// Role is a closed set of marketplace participants.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleCustomer || r == RoleDriver || r == RoleAdmin
}

// User is the identity fragment this core reads; credentials live with
// the identity collaborator. Driver-only fields are mutated here while
// the driver is online.
type User struct {
	ID     int64
	Name   string
	Phone  string
	Role   Role
	Active bool

	// Driver profile fragment.
	Approved    bool
	Online      bool
	Latitude    *float64
	Longitude   *float64
	LocatedAt   *time.Time
	RatingSum   int64
	RatingCount int64

	CreatedAt time.Time
}

// RatingAvg derives the running average from the exact integer
// aggregate; zero when the driver has no ratings yet.
func (u *User) RatingAvg() float64 {
	if u == nil || u.RatingCount == 0 {
		return 0
	}
	return float64(u.RatingSum) / float64(u.RatingCount)
}
