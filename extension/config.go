package extension

// Config holds the Vesting extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vesting" or "vesting" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// EscrowAccount is the engine's custodial account on the asset ledger
	// (default: "vesting-escrow").
	EscrowAccount string `json:"escrow_account" mapstructure:"escrow_account" yaml:"escrow_account"`

	// AllowSelfVesting permits streams where the employee equals the
	// employer. Off by default.
	AllowSelfVesting bool `json:"allow_self_vesting" mapstructure:"allow_self_vesting" yaml:"allow_self_vesting"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EscrowAccount: "vesting-escrow",
	}
}
