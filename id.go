package vesting

import "github.com/xraph/vesting/id"

// ID is the identifier type for entities the engine mints ids for, such as
// transfer journal entries and audit events. Payment streams use plain
// sequential integers instead.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
