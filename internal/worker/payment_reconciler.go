package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// DeliveryFacade exposes the subset of application functionality
// required by the reconciler.
type DeliveryFacade interface {
	PendingGatewayPayments(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
	ReconcilePayment(ctx context.Context, order model.Order) error
}

// PaymentReconciler polls the payment gateway for orders whose payment
// never reconciled through the synchronous confirm call or the webhook
// and applies the missing effect. Reconciliation is idempotent, so
// racing with either entry point is harmless.
type PaymentReconciler struct {
	facade       DeliveryFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPaymentReconciler constructs the reconciliation worker pool.
func NewPaymentReconciler(facade DeliveryFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *PaymentReconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &PaymentReconciler{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background processing.
func (p *PaymentReconciler) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *PaymentReconciler) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *PaymentReconciler) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *PaymentReconciler) fetchAndDispatch(ctx context.Context) {
	// Leave very fresh orders alone: their confirm call or webhook is
	// likely still on the way.
	olderThan := time.Now().Add(-p.pollInterval)
	orders, err := p.facade.PendingGatewayPayments(ctx, olderThan, p.batchSize)
	if err != nil {
		p.logger.Error("fetch pending payments failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *PaymentReconciler) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleOrder(ctx, order)
		}
	}
}

func (p *PaymentReconciler) handleOrder(ctx context.Context, order model.Order) {
	err := p.facade.ReconcilePayment(ctx, order)
	if err == nil {
		return
	}
	if errors.Is(err, domainErrors.ErrUpstream) {
		p.logger.Warn("gateway unavailable during reconciliation",
			slog.String("order", order.Number), slog.String("error", err.Error()))
		return
	}
	p.logger.Error("payment reconciliation failed",
		slog.String("order", order.Number), slog.String("error", err.Error()))
}
