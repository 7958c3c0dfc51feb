// Package extension provides the Forge extension adapter for Vesting.
//
// It implements the forge.Extension interface to integrate the vesting
// escrow engine into a Forge application with DI registration and
// lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.vesting" or "vesting" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/token"
	tokenmem "github.com/xraph/vesting/token/memory"
	"github.com/xraph/vesting/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "vesting"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Token-vesting escrow engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Vesting as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *vesting.Ledger
	store       store.Store
	assets      token.Ledger
	vestingOpts []vesting.Option
}

// New creates a new Vesting Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *vesting.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the vesting engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use in-memory collaborators if none were provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	if e.assets == nil {
		e.assets = tokenmem.New()
	}

	opts := e.buildVestingOpts()

	eng := vesting.New(e.store, e.assets, types.Account(e.config.EscrowAccount), opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*vesting.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("vesting: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("vesting: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildVestingOpts constructs vesting.Option values from the resolved config.
func (e *Extension) buildVestingOpts() []vesting.Option {
	opts := make([]vesting.Option, 0, len(e.vestingOpts)+1)

	if e.config.AllowSelfVesting {
		opts = append(opts, vesting.WithSelfVestingAllowed())
	}

	// Append any pass-through vesting options.
	opts = append(opts, e.vestingOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("vesting: configuration is required but not found in config files; " +
				"ensure 'extensions.vesting' or 'vesting' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("vesting: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("escrow_account", e.config.EscrowAccount),
		forge.F("allow_self_vesting", e.config.AllowSelfVesting),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.vesting" first (namespaced pattern).
	if cm.IsSet("extensions.vesting") {
		if err := cm.Bind("extensions.vesting", &cfg); err == nil {
			e.Logger().Debug("vesting: loaded config from file",
				forge.F("key", "extensions.vesting"),
			)
			return cfg, true
		}
		e.Logger().Warn("vesting: failed to bind extensions.vesting config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "vesting" key.
	if cm.IsSet("vesting") {
		if err := cm.Bind("vesting", &cfg); err == nil {
			e.Logger().Debug("vesting: loaded config from file",
				forge.F("key", "vesting"),
			)
			return cfg, true
		}
		e.Logger().Warn("vesting: failed to bind vesting config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.EscrowAccount == "" {
		cfg.EscrowAccount = defaults.EscrowAccount
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.AllowSelfVesting {
		yamlConfig.AllowSelfVesting = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.EscrowAccount == "" && programmaticConfig.EscrowAccount != "" {
		yamlConfig.EscrowAccount = programmaticConfig.EscrowAccount
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
