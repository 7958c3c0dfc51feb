package vesting

import "github.com/xraph/vesting/types"

// Re-export common types for convenience so users don't have to import types package.

// Account is re-exported from types package.
type Account = types.Account

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Entity constructor
var NewEntity = types.NewEntity
