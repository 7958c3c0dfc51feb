package extension

import (
	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/token"
	"github.com/xraph/vesting/types"
)

// Option configures the Vesting Forge extension.
type Option func(*Extension)

// WithStore sets the payment registry store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTokenLedger sets the external asset ledger the engine drives.
// Defaults to the in-memory ledger, which only suits tests and demos.
func WithTokenLedger(t token.Ledger) Option {
	return func(e *Extension) {
		e.assets = t
	}
}

// WithEscrowAccount sets the engine's custodial account on the asset ledger.
func WithEscrowAccount(account types.Account) Option {
	return func(e *Extension) {
		e.config.EscrowAccount = account.String()
	}
}

// WithVestingOption passes a vesting.Option through to the underlying engine.
func WithVestingOption(opt vesting.Option) Option {
	return func(e *Extension) {
		e.vestingOpts = append(e.vestingOpts, opt)
	}
}

// WithPlugin registers a vesting plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.vestingOpts = append(e.vestingOpts, vesting.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithAllowSelfVesting permits streams where the employee equals the employer.
func WithAllowSelfVesting() Option {
	return func(e *Extension) { e.config.AllowSelfVesting = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
