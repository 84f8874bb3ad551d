// Package steward manages the access-control state of a ClickHouse server:
// users, roles, grants, quotas, row policies and settings profiles.
//
// Edits are planned as reviewable changes, staged in a queue, and executed
// one at a time against the server. Every executed change is recorded in
// an audit log.
//
//	eng, err := steward.NewEngine(
//	    steward.WithStore(memory.New()),
//	    steward.WithServer(client),
//	)
//	c, err := eng.PlanGrants(ctx, entity.TypeUser, "alice", desired)
//	_, err = eng.Stage(ctx, c)
//	report, err := eng.Execute(steward.WithActor(ctx, "ops"))
package steward

import (
	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/exchange"
	"github.com/xraph/steward/permission"
	"github.com/xraph/steward/queue"
)

// Server is the managed database as the engine sees it: it runs
// statements and reads access-control state back.
type Server interface {
	queue.Executor
	permission.Reader
	assignment.Reader
	exchange.EntityReader
}

// Desired is the target access of one user or role. A nil Grants or Roles
// leaves that side untouched; an empty, non-nil slice removes everything.
type Desired struct {
	Type   entity.Type             `json:"type" yaml:"type"`
	Name   string                  `json:"name" yaml:"name"`
	Grants []permission.Grant      `json:"grants,omitempty" yaml:"grants,omitempty"`
	Roles  []assignment.Assignment `json:"roles,omitempty" yaml:"roles,omitempty"`
}
