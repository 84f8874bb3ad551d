package api

import (
	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/exchange"
	"github.com/xraph/steward/permission"
)

// ──────────────────────────────────────────────────
// Effective grant requests
// ──────────────────────────────────────────────────

// EffectiveGrantsRequest is the path parameter for effective grants.
type EffectiveGrantsRequest struct {
	Identity string `path:"identity" description:"User or role name"`
}

// ──────────────────────────────────────────────────
// Planning requests
// ──────────────────────────────────────────────────

// PlanRequest describes the target access of one user or role.
type PlanRequest struct {
	EntityType string                  `json:"entity_type" description:"USER or ROLE"`
	Name       string                  `json:"name" description:"User or role name"`
	Grants     []permission.Grant      `json:"grants,omitempty" description:"Desired direct grants; omit to leave unchanged"`
	Roles      []assignment.Assignment `json:"roles,omitempty" description:"Desired role assignments; omit to leave unchanged"`
	Stage      bool                    `json:"stage,omitempty" description:"Stage the planned changes"`
}

// ──────────────────────────────────────────────────
// Change requests
// ──────────────────────────────────────────────────

// GetChangeRequest is the path parameter for a staged change.
type GetChangeRequest struct {
	ChangeID string `path:"changeId" description:"Staged change ID"`
}

// ──────────────────────────────────────────────────
// Audit requests
// ──────────────────────────────────────────────────

// ListAuditRequest holds query parameters for the audit log.
type ListAuditRequest struct {
	Actor      string `query:"actor" description:"Filter by operator"`
	ChangeType string `query:"change_type" description:"Filter by change type"`
	EntityType string `query:"entity_type" description:"Filter by entity type"`
	EntityName string `query:"entity_name" description:"Filter by entity name"`
	Success    string `query:"success" description:"Filter by outcome (true, false)"`
	After      string `query:"after" description:"Entries at or after (RFC3339)"`
	Before     string `query:"before" description:"Entries at or before (RFC3339)"`
	Limit      int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset     int    `query:"offset" description:"Results to skip"`
}

// GetAuditEntryRequest is the path parameter for one audit entry.
type GetAuditEntryRequest struct {
	EntryID string `path:"entryId" description:"Audit entry ID"`
}

// ──────────────────────────────────────────────────
// Exchange requests
// ──────────────────────────────────────────────────

// ImportRequest carries an export document to stage.
type ImportRequest struct {
	Document *exchange.Document `json:"document" description:"Export document"`
	DryRun   bool               `json:"dry_run,omitempty" description:"Plan without staging"`
}
