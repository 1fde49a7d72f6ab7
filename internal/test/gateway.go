package test

import (
	"context"
	"sync"

	"github.com/fueldrop/fueldrop/internal/adapter/gateway"
	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// GatewayStub simulates the payment gateway client.
type GatewayStub struct {
	CreateFn   func(context.Context, model.Money, string, map[string]string) (*gateway.Intent, error)
	RetrieveFn func(context.Context, string) (*gateway.Intent, error)
	RefundFn   func(context.Context, string) (string, error)
	VerifyFn   func([]byte, string) bool

	mu      sync.Mutex
	Refunds []string
}

// CreateIntent returns a deterministic intent unless overridden.
func (s *GatewayStub) CreateIntent(ctx context.Context, amount model.Money, currency string, metadata map[string]string) (*gateway.Intent, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, amount, currency, metadata)
	}
	return &gateway.Intent{Ref: "pi_test", Status: gateway.IntentStatusPending, Amount: int64(amount), Currency: currency}, nil
}

// RetrieveIntent reports the configured intent state.
func (s *GatewayStub) RetrieveIntent(ctx context.Context, ref string) (*gateway.Intent, error) {
	if s.RetrieveFn != nil {
		return s.RetrieveFn(ctx, ref)
	}
	return &gateway.Intent{Ref: ref, Status: gateway.IntentStatusSucceeded, TransactionID: "txn_test"}, nil
}

// Refund records the refunded intent reference.
func (s *GatewayStub) Refund(ctx context.Context, ref string) (string, error) {
	if s.RefundFn != nil {
		return s.RefundFn(ctx, ref)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Refunds = append(s.Refunds, ref)
	return "re_test", nil
}

// VerifySignature accepts everything unless overridden.
func (s *GatewayStub) VerifySignature(payload []byte, signature string) bool {
	if s.VerifyFn != nil {
		return s.VerifyFn(payload, signature)
	}
	return true
}
