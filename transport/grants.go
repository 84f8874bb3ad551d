package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/permission"
)

const grantsQuery = `SELECT ifNull(user_name, role_name) AS holder, access_type, database, "table", "column", toString(is_partial_revoke)
FROM system.grants`

const roleGrantsQuery = `SELECT ifNull(user_name, role_name) AS holder, granted_role_name, toString(with_admin_option)
FROM system.role_grants`

// grantRow is one row of system.grants.
type grantRow struct {
	holder        string
	accessType    string
	database      *string
	table         *string
	column        *string
	partialRevoke string
}

// toGrant maps a row back to a catalog grant. Column-level grants, partial
// revokes and keywords the catalog does not know are dropped.
func (r grantRow) toGrant(cat *catalog.Catalog) (permission.Grant, bool) {
	if r.partialRevoke == "1" || (r.column != nil && *r.column != "") {
		return permission.Grant{}, false
	}
	node, err := cat.LookupKeyword(r.accessType)
	if err != nil {
		return permission.Grant{}, false
	}
	scope := catalog.Global()
	switch {
	case r.database != nil && *r.database != "" && r.table != nil && *r.table != "":
		scope = catalog.Table(*r.database, *r.table)
	case r.database != nil && *r.database != "":
		scope = catalog.Database(*r.database)
	}
	return permission.New(node.ID, scope), true
}

// ListGrants implements permission.Reader.
func (c *Client) ListGrants(ctx context.Context, identity string) ([]permission.Grant, error) {
	all, err := c.grantsBy(ctx, " WHERE user_name = $1 OR role_name = $1", identity)
	if err != nil {
		return nil, err
	}
	return all[identity], nil
}

// ListRoleAssignments implements assignment.Reader.
func (c *Client) ListRoleAssignments(ctx context.Context, identity string) ([]assignment.Assignment, error) {
	all, err := c.roleGrantsBy(ctx, " WHERE user_name = $1 OR role_name = $1", identity)
	if err != nil {
		return nil, err
	}
	return all[identity], nil
}

func (c *Client) grantsBy(ctx context.Context, where string, args ...any) (map[string][]permission.Grant, error) {
	out := make(map[string][]permission.Grant)
	err := c.query(ctx, func(rows pgx.Rows) error {
		var r grantRow
		if err := rows.Scan(&r.holder, &r.accessType, &r.database, &r.table, &r.column, &r.partialRevoke); err != nil {
			return err
		}
		g, ok := r.toGrant(c.cat)
		if !ok {
			c.logger.Debug("grant not representable", slog.String("holder", r.holder), slog.String("access_type", r.accessType))
			return nil
		}
		out[r.holder] = append(out[r.holder], g)
		return nil
	}, grantsQuery+where, args...)
	if err != nil {
		return nil, fmt.Errorf("transport: read grants: %w", err)
	}
	for k, v := range out {
		out[k] = permission.Dedup(v)
	}
	return out, nil
}

func (c *Client) roleGrantsBy(ctx context.Context, where string, args ...any) (map[string][]assignment.Assignment, error) {
	out := make(map[string][]assignment.Assignment)
	err := c.query(ctx, func(rows pgx.Rows) error {
		var holder, role, admin string
		if err := rows.Scan(&holder, &role, &admin); err != nil {
			return err
		}
		out[holder] = append(out[holder], assignment.Assignment{Role: role, AdminOption: admin == "1"})
		return nil
	}, roleGrantsQuery+where, args...)
	if err != nil {
		return nil, fmt.Errorf("transport: read role grants: %w", err)
	}
	return out, nil
}
