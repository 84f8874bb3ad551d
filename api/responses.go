package api

import (
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/effective"
	"github.com/xraph/steward/permission"
)

// EffectiveGrantsResponse lists everything an identity holds.
type EffectiveGrantsResponse struct {
	Identity string                `json:"identity" description:"User or role name"`
	Grants   []permission.Extended `json:"grants" description:"Grants with provenance, direct first"`
	Summary  []effective.Entry     `json:"summary" description:"Grants grouped with all their sources"`
}

// PlanResponse holds planned, and possibly staged, changes.
type PlanResponse struct {
	Changes []*change.Change `json:"changes" description:"Planned changes in execution order"`
	Staged  bool             `json:"staged" description:"Whether the changes were staged"`
}

// ExecuteResponse reports an execution pass.
type ExecuteResponse struct {
	Report  *change.Report `json:"report" description:"Per-change results"`
	Summary string         `json:"summary" description:"Human-readable outcome"`
}

// PurgeResponse reports removed audit entries.
type PurgeResponse struct {
	Purged int64 `json:"purged" description:"Number of entries removed"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
