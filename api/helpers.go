package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/exchange"
	"github.com/xraph/steward/plan"
	"github.com/xraph/steward/queue"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, entity.ErrValidation) ||
		errors.Is(err, catalog.ErrInvalidScope) ||
		errors.Is(err, catalog.ErrInvalidScopeKind) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, exchange.ErrVersionMismatch) || errors.Is(err, exchange.ErrMalformed) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, queue.ErrExecutionInProgress) || errors.Is(err, queue.ErrEmptyChange) ||
		errors.Is(err, queue.ErrInvalidChange) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, plan.ErrNoChanges) || errors.Is(err, steward.ErrUnsupportedEntity) {
		return forge.BadRequest(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNodeNotFound) ||
		errors.Is(err, queue.ErrChangeNotFound) ||
		errors.Is(err, audit.ErrEntryNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid %s timestamp", field))
	}
	return &t, nil
}
