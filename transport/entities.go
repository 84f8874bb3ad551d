package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/permission"
)

const usersQuery = `SELECT name, toString(auth_type),
  arrayStringConcat(host_ip, ','), arrayStringConcat(host_names, ','),
  arrayStringConcat(host_names_like, ','), arrayStringConcat(host_names_regexp, ','),
  default_database, toString(grantees_any),
  arrayStringConcat(grantees_list, ','), arrayStringConcat(grantees_except, ',')
FROM system.users ORDER BY name`

const rolesQuery = `SELECT name FROM system.roles ORDER BY name`

const elementsQuery = `SELECT
  multiIf(profile_name IS NOT NULL, 'profile', user_name IS NOT NULL, 'user', 'role') AS kind,
  coalesce(profile_name, user_name, role_name) AS owner,
  ifNull(setting_name, ''), ifNull(value, ''), ifNull(min, ''), ifNull(max, ''),
  ifNull(toString(writability), ''), ifNull(inherit_profile, '')
FROM system.settings_profile_elements ORDER BY kind, owner, index`

const quotasQuery = `SELECT name, arrayStringConcat(keys, ','), toString(apply_to_all),
  arrayStringConcat(apply_to_list, ',')
FROM system.quotas ORDER BY name`

const rowPoliciesQuery = `SELECT short_name, database, "table", ifNull(select_filter, ''),
  toString(is_restrictive), toString(apply_to_all), arrayStringConcat(apply_to_list, ',')
FROM system.row_policies ORDER BY name`

const profilesQuery = `SELECT name, toString(apply_to_all), arrayStringConcat(apply_to_list, ',')
FROM system.settings_profiles ORDER BY name`

// quotaResources maps system.quota_limits columns to quota resources.
var quotaResources = []struct{ column, resource string }{
	{"max_queries", "queries"},
	{"max_query_selects", "query_selects"},
	{"max_query_inserts", "query_inserts"},
	{"max_errors", "errors"},
	{"max_result_rows", "result_rows"},
	{"max_result_bytes", "result_bytes"},
	{"max_read_rows", "read_rows"},
	{"max_read_bytes", "read_bytes"},
	{"max_written_bytes", "written_bytes"},
	{"max_execution_time", "execution_time"},
	{"max_failed_sequential_authentications", "failed_sequential_authentications"},
}

func quotaLimitsQuery() string {
	cols := make([]string, len(quotaResources))
	for i, r := range quotaResources {
		cols[i] = "toString(" + r.column + ")"
	}
	return "SELECT quota_name, toString(duration), toString(is_randomized_interval), " +
		strings.Join(cols, ", ") + " FROM system.quota_limits ORDER BY quota_name, duration"
}

// ──────────────────────────────────────────────────
// Users and roles
// ──────────────────────────────────────────────────

// ListUsers implements exchange.EntityReader. Secrets are not readable
// from the server and are left empty.
func (c *Client) ListUsers(ctx context.Context) ([]*entity.User, error) {
	var (
		users    []*entity.User
		elements map[string][]element
		grants   map[string][]permission.Grant
		roles    map[string][]assignment.Assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.query(gctx, func(rows pgx.Rows) error {
			var name, auth, ip, names, like, regexp, db, anyGrantee, granteeList, granteeExcept string
			if err := rows.Scan(&name, &auth, &ip, &names, &like, &regexp, &db, &anyGrantee, &granteeList, &granteeExcept); err != nil {
				return err
			}
			users = append(users, &entity.User{
				Name:            name,
				Auth:            entity.Auth{Method: parseAuthType(auth)},
				Hosts:           parseHosts(ip, names, like, regexp),
				DefaultDatabase: db,
				Grantees:        parseGrantees(anyGrantee == "1", split(granteeList), split(granteeExcept)),
			})
			return nil
		}, usersQuery)
	})
	g.Go(func() (err error) {
		elements, err = c.elements(gctx)
		return err
	})
	g.Go(func() (err error) {
		grants, err = c.grantsBy(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		roles, err = c.roleGrantsBy(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transport: list users: %w", err)
	}

	for _, u := range users {
		u.SettingsProfile, u.Settings = applyElements(elements["user:"+u.Name])
		u.ReadOnly, u.Settings = entity.SplitReadonly(u.Settings)
		u.Grants = grants[u.Name]
		u.Roles = roles[u.Name]
	}
	return users, nil
}

// ListRoles implements exchange.EntityReader.
func (c *Client) ListRoles(ctx context.Context) ([]*entity.Role, error) {
	var (
		out      []*entity.Role
		elements map[string][]element
		grants   map[string][]permission.Grant
		roles    map[string][]assignment.Assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.query(gctx, func(rows pgx.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			out = append(out, &entity.Role{Name: name})
			return nil
		}, rolesQuery)
	})
	g.Go(func() (err error) {
		elements, err = c.elements(gctx)
		return err
	})
	g.Go(func() (err error) {
		grants, err = c.grantsBy(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		roles, err = c.roleGrantsBy(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transport: list roles: %w", err)
	}

	for _, r := range out {
		r.SettingsProfile, r.Settings = applyElements(elements["role:"+r.Name])
		r.Grants = grants[r.Name]
		r.Roles = roles[r.Name]
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Quotas, row policies, settings profiles
// ──────────────────────────────────────────────────

// ListQuotas implements exchange.EntityReader.
func (c *Client) ListQuotas(ctx context.Context) ([]*entity.Quota, error) {
	var quotas []*entity.Quota
	err := c.query(ctx, func(rows pgx.Rows) error {
		var name, keys, all, list string
		if err := rows.Scan(&name, &keys, &all, &list); err != nil {
			return err
		}
		quotas = append(quotas, &entity.Quota{Name: name, KeyedBy: keys, Apply: applyTo(all == "1", split(list))})
		return nil
	}, quotasQuery)
	if err != nil {
		return nil, fmt.Errorf("transport: list quotas: %w", err)
	}

	intervals := make(map[string][]entity.QuotaInterval)
	err = c.query(ctx, func(rows pgx.Rows) error {
		var quota, duration, randomized string
		maxes := make([]*string, len(quotaResources))
		dest := []any{&quota, &duration, &randomized}
		for i := range maxes {
			dest = append(dest, &maxes[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		seconds, err := strconv.Atoi(duration)
		if err != nil {
			return fmt.Errorf("quota %s: duration %q: %w", quota, duration, err)
		}
		iv := intervalFromSeconds(seconds)
		iv.Randomized = randomized == "1"
		for i, m := range maxes {
			if m != nil && *m != "" {
				iv.Limits = append(iv.Limits, entity.QuotaLimit{Resource: quotaResources[i].resource, Max: *m})
			}
		}
		intervals[quota] = append(intervals[quota], iv)
		return nil
	}, quotaLimitsQuery())
	if err != nil {
		return nil, fmt.Errorf("transport: list quota limits: %w", err)
	}

	for _, q := range quotas {
		q.Intervals = intervals[q.Name]
	}
	return quotas, nil
}

// ListRowPolicies implements exchange.EntityReader.
func (c *Client) ListRowPolicies(ctx context.Context) ([]*entity.RowPolicy, error) {
	var out []*entity.RowPolicy
	err := c.query(ctx, func(rows pgx.Rows) error {
		var name, db, table, filter, restrictive, all, list string
		if err := rows.Scan(&name, &db, &table, &filter, &restrictive, &all, &list); err != nil {
			return err
		}
		out = append(out, &entity.RowPolicy{
			Name:        name,
			Database:    db,
			Table:       table,
			Condition:   filter,
			Restrictive: restrictive == "1",
			Apply:       applyTo(all == "1", split(list)),
		})
		return nil
	}, rowPoliciesQuery)
	if err != nil {
		return nil, fmt.Errorf("transport: list row policies: %w", err)
	}
	return out, nil
}

// ListSettingsProfiles implements exchange.EntityReader.
func (c *Client) ListSettingsProfiles(ctx context.Context) ([]*entity.SettingsProfile, error) {
	var out []*entity.SettingsProfile
	err := c.query(ctx, func(rows pgx.Rows) error {
		var name, all, list string
		if err := rows.Scan(&name, &all, &list); err != nil {
			return err
		}
		out = append(out, &entity.SettingsProfile{Name: name, Apply: applyTo(all == "1", split(list))})
		return nil
	}, profilesQuery)
	if err != nil {
		return nil, fmt.Errorf("transport: list settings profiles: %w", err)
	}

	elements, err := c.elements(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: list settings profiles: %w", err)
	}
	for _, p := range out {
		var settings []entity.Setting
		for _, e := range elements["profile:"+p.Name] {
			if e.inherit != "" {
				p.Inherit = append(p.Inherit, e.inherit)
				continue
			}
			settings = append(settings, e.setting)
		}
		p.ReadOnly, p.Settings = entity.SplitReadonly(settings)
	}
	return out, nil
}
