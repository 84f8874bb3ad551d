package steward

import "github.com/xraph/steward/id"

// ID is the primary identifier type for Steward records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
