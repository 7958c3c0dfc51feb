package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vesting store (PostgreSQL).
var Migrations = migrate.NewGroup("vesting")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vesting_payments",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_payments (
    id          BIGINT PRIMARY KEY,
    employer    TEXT NOT NULL DEFAULT '',
    employee    TEXT NOT NULL DEFAULT '',
    amount      BIGINT NOT NULL DEFAULT 0,
    released    BIGINT NOT NULL DEFAULT 0,
    balance     BIGINT NOT NULL DEFAULT 0,
    start_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    duration_ns BIGINT NOT NULL DEFAULT 0,
    cancellable BOOLEAN NOT NULL DEFAULT false,
    active      BOOLEAN NOT NULL DEFAULT true,
    canceled_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vesting_payments_employer ON vesting_payments (employer);
CREATE INDEX IF NOT EXISTS idx_vesting_payments_employee ON vesting_payments (employee);
CREATE INDEX IF NOT EXISTS idx_vesting_payments_active ON vesting_payments (active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_payments`)
				return err
			},
		},
	)
}
