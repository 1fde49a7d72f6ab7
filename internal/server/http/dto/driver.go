package dto

// DriverStatusRequest flips driver availability.
type DriverStatusRequest struct {
	Online bool `json:"online"`
}

// LocationRequest reports the driver's current coordinates.
type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ApprovalRequest is the admin gate on driver matching visibility.
type ApprovalRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// ActiveRequest deactivates or reactivates an account.
type ActiveRequest struct {
	Active bool   `json:"active"`
	Reason string `json:"reason,omitempty"`
}

// ProfileResponse is the user fragment with driver reputation.
type ProfileResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Active      bool     `json:"active"`
	Approved    bool     `json:"approved,omitempty"`
	Online      bool     `json:"online,omitempty"`
	Rating      float64  `json:"rating"`
	RatingCount int64    `json:"rating_count"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}
