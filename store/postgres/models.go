package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vesting/payment"
	"github.com/xraph/vesting/types"
)

type paymentModel struct {
	grove.BaseModel `grove:"table:vesting_payments"`

	ID          uint64     `grove:"id,pk"`
	Employer    string     `grove:"employer"`
	Employee    string     `grove:"employee"`
	Amount      int64      `grove:"amount"`
	Released    int64      `grove:"released"`
	Balance     int64      `grove:"balance"`
	StartAt     time.Time  `grove:"start_at"`
	DurationNS  int64      `grove:"duration_ns"`
	Cancellable bool       `grove:"cancellable"`
	Active      bool       `grove:"active"`
	CanceledAt  *time.Time `grove:"canceled_at"`
	CreatedAt   time.Time  `grove:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:          p.ID,
		Employer:    p.Employer.String(),
		Employee:    p.Employee.String(),
		Amount:      int64(p.Amount),
		Released:    int64(p.Released),
		Balance:     int64(p.Balance),
		StartAt:     p.Start,
		DurationNS:  int64(p.Duration),
		Cancellable: p.Cancellable,
		Active:      p.Active,
		CanceledAt:  p.CanceledAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) *payment.Payment {
	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          m.ID,
		Employer:    types.Account(m.Employer),
		Employee:    types.Account(m.Employee),
		Amount:      uint64(m.Amount),
		Released:    uint64(m.Released),
		Balance:     uint64(m.Balance),
		Start:       m.StartAt,
		Duration:    time.Duration(m.DurationNS),
		Cancellable: m.Cancellable,
		Active:      m.Active,
		CanceledAt:  m.CanceledAt,
	}
}
