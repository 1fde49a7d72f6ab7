package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/domain/repository"
)

const pgUniqueViolation = "23505"

// PgxPool is the slice of pgxpool.Pool the storage uses; narrowed so
// tests can substitute a mock pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   PgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            phone TEXT UNIQUE NOT NULL,
            role TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            approved BOOLEAN NOT NULL DEFAULT FALSE,
            online BOOLEAN NOT NULL DEFAULT FALSE,
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            located_at TIMESTAMPTZ,
            rating_sum BIGINT NOT NULL DEFAULT 0,
            rating_count BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            number TEXT UNIQUE NOT NULL,
            customer_id BIGINT NOT NULL REFERENCES users(id),
            driver_id BIGINT REFERENCES users(id),
            fuel_type TEXT NOT NULL,
            quantity_milli BIGINT NOT NULL,
            unit_price BIGINT NOT NULL,
            delivery_fee BIGINT NOT NULL,
            tax_rate_bp BIGINT NOT NULL,
            total BIGINT NOT NULL,
            address_line TEXT NOT NULL,
            landmark TEXT NOT NULL DEFAULT '',
            instructions TEXT NOT NULL DEFAULT '',
            latitude DOUBLE PRECISION NOT NULL,
            longitude DOUBLE PRECISION NOT NULL,
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            intent_ref TEXT NOT NULL DEFAULT '',
            transaction_id TEXT NOT NULL DEFAULT '',
            paid_at TIMESTAMPTZ,
            estimated_arrival TIMESTAMPTZ,
            actual_delivery_time TIMESTAMPTZ,
            customer_rating_score INT,
            customer_rating_comment TEXT,
            customer_rated_at TIMESTAMPTZ,
            driver_rating_score INT,
            driver_rating_comment TEXT,
            driver_rated_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS order_milestones (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            kind TEXT NOT NULL,
            occurred_at TIMESTAMPTZ NOT NULL,
            payload JSONB,
            UNIQUE (order_id, kind)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_driver ON orders(driver_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_intent ON orders(intent_ref)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

const userColumns = `id, name, phone, role, active, approved, online,
       latitude, longitude, located_at, rating_sum, rating_count, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Role, &u.Active, &u.Approved, &u.Online,
		&u.Latitude, &u.Longitude, &u.LocatedAt, &u.RatingSum, &u.RatingCount, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) SetOnline(ctx context.Context, driverID int64, online bool) error {
	const query = `UPDATE users SET online=$1 WHERE id=$2 AND role='driver'`
	tag, err := r.storage.pool.Exec(ctx, query, online, driverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetLocation(ctx context.Context, driverID int64, lat, lng float64, at time.Time) error {
	const query = `UPDATE users SET latitude=$1, longitude=$2, located_at=$3 WHERE id=$4 AND role='driver'`
	tag, err := r.storage.pool.Exec(ctx, query, lat, lng, at, driverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetApproved(ctx context.Context, driverID int64, approved bool) error {
	const query = `UPDATE users SET approved=$1 WHERE id=$2 AND role='driver'`
	tag, err := r.storage.pool.Exec(ctx, query, approved, driverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	const query = `UPDATE users SET active=$1 WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, active, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, number, customer_id, driver_id, fuel_type, quantity_milli,
       unit_price, delivery_fee, tax_rate_bp, total,
       address_line, landmark, instructions, latitude, longitude,
       status, payment_status, payment_method,
       intent_ref, transaction_id, paid_at, estimated_arrival, actual_delivery_time,
       customer_rating_score, customer_rating_comment, customer_rated_at,
       driver_rating_score, driver_rating_comment, driver_rated_at,
       created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o           model.Order
		custScore   *int
		custComment *string
		custRatedAt *time.Time
		drvScore    *int
		drvComment  *string
		drvRatedAt  *time.Time
	)
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.DriverID, &o.FuelType, &o.QuantityMilli,
		&o.UnitPrice, &o.DeliveryFee, &o.TaxRateBP, &o.Total,
		&o.Address.Line, &o.Address.Landmark, &o.Address.Instructions, &o.Address.Latitude, &o.Address.Longitude,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.PaymentIntentRef, &o.TransactionID, &o.PaidAt, &o.EstimatedArrival, &o.ActualDeliveryTime,
		&custScore, &custComment, &custRatedAt,
		&drvScore, &drvComment, &drvRatedAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if custScore != nil && custRatedAt != nil {
		o.CustomerRating = &model.Rating{Score: *custScore, RatedAt: *custRatedAt}
		if custComment != nil {
			o.CustomerRating.Comment = *custComment
		}
	}
	if drvScore != nil && drvRatedAt != nil {
		o.DriverRating = &model.Rating{Score: *drvScore, RatedAt: *drvRatedAt}
		if drvComment != nil {
			o.DriverRating.Comment = *drvComment
		}
	}
	return &o, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	const query = `INSERT INTO orders (number, customer_id, fuel_type, quantity_milli,
                       unit_price, delivery_fee, tax_rate_bp, total,
                       address_line, landmark, instructions, latitude, longitude,
                       status, payment_status, payment_method)
                   VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
                   RETURNING id, created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query,
		o.Number, o.CustomerID, o.FuelType, o.QuantityMilli,
		o.UnitPrice, o.DeliveryFee, o.TaxRateBP, o.Total,
		o.Address.Line, o.Address.Landmark, o.Address.Instructions, o.Address.Latitude, o.Address.Longitude,
		o.Status, o.PaymentStatus, o.PaymentMethod,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) GetByIntentRef(ctx context.Context, intentRef string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE intent_ref=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, intentRef))
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, customerID)
}

func (r *orderRepository) ListByDriver(ctx context.Context, driverID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE driver_id=$1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, driverID)
}

func (r *orderRepository) ListAll(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1`
	return r.queryOrders(ctx, query, limit)
}

func (r *orderRepository) ListUnassignedConfirmed(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status='confirmed' AND driver_id IS NULL ORDER BY created_at`
	return r.queryOrders(ctx, query)
}

// Accept is the compare-and-swap assignment: of N concurrent drivers
// exactly one update matches the WHERE clause.
func (r *orderRepository) Accept(ctx context.Context, orderID, driverID int64) error {
	const query = `UPDATE orders SET driver_id=$1, status='driver_assigned', updated_at=NOW()
                   WHERE id=$2 AND status='confirmed' AND driver_id IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, driverID, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrNotFound(ctx, orderID)
	}
	return nil
}

func (r *orderRepository) Transition(ctx context.Context, orderID int64, from, to model.OrderStatus, fields repository.TransitionFields) error {
	query := `UPDATE orders SET status=$1, updated_at=NOW()`
	args := []any{to}
	if fields.EstimatedArrival != nil {
		args = append(args, *fields.EstimatedArrival)
		query += fmt.Sprintf(", estimated_arrival=$%d", len(args))
	}
	if fields.ActualDeliveryTime != nil {
		args = append(args, *fields.ActualDeliveryTime)
		query += fmt.Sprintf(", actual_delivery_time=$%d", len(args))
	}
	if fields.MarkCashPaid {
		args = append(args, time.Now())
		query += fmt.Sprintf(", payment_status='paid', paid_at=$%d", len(args))
	}
	args = append(args, orderID, from)
	query += fmt.Sprintf(" WHERE id=$%d AND status=$%d", len(args)-1, len(args))

	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrNotFound(ctx, orderID)
	}
	return nil
}

func (r *orderRepository) OverrideStatus(ctx context.Context, orderID int64, to model.OrderStatus) error {
	const query = `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, to, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SetIntentRef(ctx context.Context, orderID int64, intentRef string) error {
	const query = `UPDATE orders SET intent_ref=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, intentRef, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// MarkPaid applies the paid effect at most once. Refunded orders keep
// their refund even if a stale success event arrives late.
func (r *orderRepository) MarkPaid(ctx context.Context, orderID int64, transactionID string, paidAt time.Time) (bool, error) {
	const query = `UPDATE orders SET payment_status='paid', transaction_id=$1, paid_at=$2, updated_at=NOW()
                   WHERE id=$3 AND payment_status IN ('pending', 'failed')`
	tag, err := r.storage.pool.Exec(ctx, query, transactionID, paidAt, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) MarkFailed(ctx context.Context, orderID int64) error {
	const query = `UPDATE orders SET payment_status='failed', updated_at=NOW()
                   WHERE id=$1 AND payment_status='pending'`
	_, err := r.storage.pool.Exec(ctx, query, orderID)
	return err
}

func (r *orderRepository) MarkRefunded(ctx context.Context, orderID int64) error {
	const query = `UPDATE orders SET payment_status='refunded', status='cancelled', updated_at=NOW()
                   WHERE id=$1 AND payment_status='paid'`
	tag, err := r.storage.pool.Exec(ctx, query, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment not in paid state", domainErrors.ErrConflict)
	}
	return nil
}

func (r *orderRepository) SelectPendingGatewayPayments(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 1
	}
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE payment_method='gateway' AND payment_status='pending' AND intent_ref <> ''
                AND created_at < $1
              ORDER BY created_at
              LIMIT $2`
	return r.queryOrders(ctx, query, olderThan, limit)
}

func (r *orderRepository) AddMilestone(ctx context.Context, m model.Milestone) error {
	const query = `INSERT INTO order_milestones (order_id, kind, occurred_at, payload)
                   VALUES ($1, $2, $3, $4)`
	_, err := r.storage.pool.Exec(ctx, query, m.OrderID, m.Kind, m.OccurredAt, m.Payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) Milestones(ctx context.Context, orderID int64) ([]model.Milestone, error) {
	const query = `SELECT order_id, kind, occurred_at, payload
                   FROM order_milestones WHERE order_id=$1 ORDER BY occurred_at`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Milestone
	for rows.Next() {
		var m model.Milestone
		if err := rows.Scan(&m.OrderID, &m.Kind, &m.OccurredAt, &m.Payload); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RateByCustomer fills the slot and folds the score into the driver
// aggregate in one transaction; both updates are single atomic
// statements, so concurrent raters never lose increments.
func (r *orderRepository) RateByCustomer(ctx context.Context, orderID, driverID int64, rating model.Rating) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const slotQuery = `UPDATE orders
                           SET customer_rating_score=$1, customer_rating_comment=$2, customer_rated_at=$3, updated_at=NOW()
                           WHERE id=$4 AND customer_rating_score IS NULL`
		tag, err := tx.Exec(ctx, slotQuery, rating.Score, rating.Comment, rating.RatedAt, orderID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrAlreadyRated
		}

		const aggQuery = `UPDATE users
                          SET rating_sum = rating_sum + $1, rating_count = rating_count + 1
                          WHERE id=$2`
		if _, err := tx.Exec(ctx, aggQuery, rating.Score, driverID); err != nil {
			return err
		}
		return nil
	})
}

func (r *orderRepository) RateByDriver(ctx context.Context, orderID int64, rating model.Rating) error {
	const query = `UPDATE orders
                   SET driver_rating_score=$1, driver_rating_comment=$2, driver_rated_at=$3, updated_at=NOW()
                   WHERE id=$4 AND driver_rating_score IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, rating.Score, rating.Comment, rating.RatedAt, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAlreadyRated
	}
	return nil
}

func (r *orderRepository) ActiveDeliveries(ctx context.Context, driverID int64) ([]model.ActiveDelivery, error) {
	const query = `SELECT id, customer_id FROM orders
                   WHERE driver_id=$1
                     AND status IN ('driver_assigned', 'driver_en_route', 'arrived', 'delivering')`
	rows, err := r.storage.pool.Query(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ActiveDelivery
	for rows.Next() {
		var d model.ActiveDelivery
		if err := rows.Scan(&d.OrderID, &d.CustomerID); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// conflictOrNotFound distinguishes a lost conditional update from a
// missing row.
func (r *orderRepository) conflictOrNotFound(ctx context.Context, orderID int64) error {
	const query = `SELECT status FROM orders WHERE id=$1`
	var status model.OrderStatus
	if err := r.storage.pool.QueryRow(ctx, query, orderID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("%w: order is %s", domainErrors.ErrConflict, status)
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
