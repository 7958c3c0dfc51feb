package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vesting store (SQLite).
var Migrations = migrate.NewGroup("vesting")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vesting_payments",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_payments (
    id          INTEGER PRIMARY KEY,
    employer    TEXT NOT NULL DEFAULT '',
    employee    TEXT NOT NULL DEFAULT '',
    amount      INTEGER NOT NULL DEFAULT 0,
    released    INTEGER NOT NULL DEFAULT 0,
    balance     INTEGER NOT NULL DEFAULT 0,
    start_at    TEXT NOT NULL DEFAULT (datetime('now')),
    duration_ns INTEGER NOT NULL DEFAULT 0,
    cancellable INTEGER NOT NULL DEFAULT 0,
    active      INTEGER NOT NULL DEFAULT 1,
    canceled_at TEXT,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
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
