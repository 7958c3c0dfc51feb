package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/payment"
	vestingstore "github.com/xraph/vesting/store"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("vesting/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vesting/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreatePayment allocates the next sequential id and inserts the record.
// The engine serializes mutating operations, so the max-plus-one read and
// the insert never race with another writer of this process.
func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) (uint64, error) {
	var next uint64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(id), 0) + 1 FROM vesting_payments`).Scan(ctx, &next)
	if err != nil {
		return 0, err
	}

	m := toPaymentModel(p)
	m.ID = next
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return 0, err
	}

	p.ID = next
	return next, nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID uint64) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", paymentID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vesting.ErrUnknownPayment
		}
		return nil, err
	}
	return fromPaymentModel(m), nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vesting.ErrUnknownPayment
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.sdb.NewSelect(&models)

	if !opts.Employer.IsZero() {
		q = q.Where("employer = ?", opts.Employer.String())
	}
	if !opts.Employee.IsZero() {
		q = q.Where("employee = ?", opts.Employee.String())
	}
	if opts.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		result[i] = fromPaymentModel(&models[i])
	}
	return result, nil
}

func (s *Store) TotalEscrowed(ctx context.Context) (uint64, error) {
	var total int64
	err := s.sdb.NewRaw(`
		SELECT COALESCE(SUM(balance), 0) FROM vesting_payments WHERE active = 1
	`).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return uint64(total), nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
