package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/payment"
	vestingstore "github.com/xraph/vesting/store"
)

// Collection name constants.
const (
	colPayments = "vesting_payments"
	colCounters = "vesting_counters"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the vesting collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "employer", Value: 1}}},
		{Keys: bson.D{{Key: "employee", Value: 1}}},
		{Keys: bson.D{{Key: "active", Value: 1}}},
	}
	if _, err := s.mdb.Collection(colPayments).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("vesting/mongo: migrate %s indexes: %w", colPayments, err)
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

// CreatePayment allocates the next sequential id from the counter document
// and inserts the record. The counter only ever increments, so ids are
// never reused even after cancellations.
func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) (uint64, error) {
	next, err := s.nextPaymentID(ctx)
	if err != nil {
		return 0, err
	}

	m := toPaymentModel(p)
	m.ID = next
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return 0, fmt.Errorf("vesting/mongo: create payment: %w", err)
	}

	p.ID = next
	return next, nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID uint64) (*payment.Payment, error) {
	var m paymentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": paymentID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vesting.ErrUnknownPayment
		}
		return nil, fmt.Errorf("vesting/mongo: get payment: %w", err)
	}
	return fromPaymentModel(&m), nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: update payment: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vesting.ErrUnknownPayment
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	filter := bson.M{}
	if !opts.Employer.IsZero() {
		filter["employer"] = opts.Employer.String()
	}
	if !opts.Employee.IsZero() {
		filter["employee"] = opts.Employee.String()
	}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	var models []paymentModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vesting/mongo: list payments: %w", err)
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		result[i] = fromPaymentModel(&models[i])
	}
	return result, nil
}

func (s *Store) TotalEscrowed(ctx context.Context) (uint64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"active": true}},
		bson.M{
			"$group": bson.M{
				"_id":   nil,
				"total": bson.M{"$sum": "$balance"},
			},
		},
	}

	cursor, err := s.mdb.Collection(colPayments).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("vesting/mongo: total escrowed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("vesting/mongo: total escrowed decode: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}
	return uint64(results[0].Total), nil
}

// nextPaymentID atomically increments the payment counter document,
// creating it on first use.
func (s *Store) nextPaymentID(ctx context.Context) (uint64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": "payment_id"},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("vesting/mongo: allocate payment id: %w", err)
	}
	return uint64(counter.Value), nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
