package paralleljob

import "github.com/xraph/paralleljob/id"

// ID is the primary identifier type for all paralleljob entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
