package auth

import (
	"time"

	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// Identity is what a verified token resolves to.
type Identity struct {
	UserID int64
	Role   model.Role
}

// Strategy issues and verifies auth tokens carrying identity and role.
type Strategy interface {
	IssueToken(userID int64, role model.Role) (string, error)
	ParseToken(token string) (Identity, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
