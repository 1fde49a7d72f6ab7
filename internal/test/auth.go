package test

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fueldrop/fueldrop/internal/domain/model"
	pkgAuth "github.com/fueldrop/fueldrop/internal/pkg/auth"
)

// StrategyStub issues and parses tokens via function overrides. The
// default token encodes identity as "role:id" so round trips work
// without signing.
type StrategyStub struct {
	IssueFn func(int64, model.Role) (string, error)
	ParseFn func(string) (pkgAuth.Identity, error)
	NameVal string
}

// IssueToken returns deterministic tokens for tests.
func (s StrategyStub) IssueToken(userID int64, role model.Role) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(userID, role)
	}
	return fmt.Sprintf("%s:%d", role, userID), nil
}

// ParseToken parses previously issued token strings.
func (s StrategyStub) ParseToken(token string) (pkgAuth.Identity, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	role, rawID, ok := strings.Cut(token, ":")
	if !ok {
		return pkgAuth.Identity{}, pkgAuth.ErrInvalidToken
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return pkgAuth.Identity{}, pkgAuth.ErrInvalidToken
	}
	return pkgAuth.Identity{UserID: id, Role: model.Role(role)}, nil
}

// Name returns the strategy identifier used in tests.
func (s StrategyStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

// AuthenticatorStub implements middleware authentication contract.
type AuthenticatorStub struct {
	Identity pkgAuth.Identity
	Err      error
	AuthFn   func(context.Context, string) (pkgAuth.Identity, error)
}

// Authenticate either delegates to override or returns predefined result.
func (s AuthenticatorStub) Authenticate(ctx context.Context, token string) (pkgAuth.Identity, error) {
	if s.AuthFn != nil {
		return s.AuthFn(ctx, token)
	}
	if s.Err != nil {
		return pkgAuth.Identity{}, s.Err
	}
	return s.Identity, nil
}

var _ pkgAuth.Strategy = StrategyStub{}
