package transport

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/steward/entity"
)

// element is one row of system.settings_profile_elements.
type element struct {
	setting entity.Setting
	inherit string
}

// elements reads every settings element keyed by "<kind>:<owner>".
func (c *Client) elements(ctx context.Context) (map[string][]element, error) {
	out := make(map[string][]element)
	err := c.query(ctx, func(rows pgx.Rows) error {
		var kind, owner, name, value, lo, hi, writability, inherit string
		if err := rows.Scan(&kind, &owner, &name, &value, &lo, &hi, &writability, &inherit); err != nil {
			return err
		}
		e := element{inherit: inherit}
		if name != "" {
			e.setting = entity.Setting{
				Name:       name,
				Value:      value,
				Min:        lo,
				Max:        hi,
				Constraint: entity.Constraint(writability),
			}
		}
		out[kind+":"+owner] = append(out[kind+":"+owner], e)
		return nil
	}, elementsQuery)
	if err != nil {
		return nil, fmt.Errorf("read settings elements: %w", err)
	}
	return out, nil
}

// applyElements splits a user's or role's elements into its settings
// profile and individual settings.
func applyElements(elems []element) (string, []entity.Setting) {
	var (
		profile  string
		settings []entity.Setting
	)
	for _, e := range elems {
		if e.inherit != "" {
			profile = e.inherit
			continue
		}
		if e.setting.Name != "" {
			settings = append(settings, e.setting)
		}
	}
	return profile, settings
}

// parseAuthType accepts both the scalar and the array rendering of
// system.users.auth_type.
func parseAuthType(s string) entity.AuthMethod {
	s = strings.Trim(s, "[]")
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return entity.AuthMethod(strings.Trim(s, "' "))
}

func parseHosts(ip, names, like, regexp string) entity.Hosts {
	h := entity.Hosts{
		IP:     split(ip),
		Name:   split(names),
		Like:   split(like),
		Regexp: split(regexp),
	}
	if i := slices.Index(h.Name, "localhost"); i >= 0 {
		h.Local = true
		h.Name = slices.Delete(h.Name, i, i+1)
	}
	if slices.Equal(h.IP, []string{"::/0"}) && len(h.Name) == 0 && len(h.Like) == 0 && len(h.Regexp) == 0 && !h.Local {
		return entity.Hosts{}
	}
	if len(h.Name) == 0 {
		h.Name = nil
	}
	return h
}

func parseGrantees(anyone bool, list, except []string) entity.Grantees {
	switch {
	case anyone:
		return entity.Grantees{Except: except}
	case len(list) == 0:
		return entity.Grantees{None: true}
	}
	return entity.Grantees{Names: list}
}

// applyTo renders the TO list of a quota, row policy or profile. ALL
// EXCEPT lists are reduced to ALL.
func applyTo(all bool, list []string) []string {
	if all {
		return []string{"ALL"}
	}
	return list
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// intervalFromSeconds picks the largest unit that divides seconds evenly.
func intervalFromSeconds(seconds int) entity.QuotaInterval {
	units := []struct {
		name    string
		seconds int
	}{
		{"year", 31556952},
		{"quarter", 7889238},
		{"month", 2629746},
		{"week", 604800},
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
	}
	for _, u := range units {
		if seconds >= u.seconds && seconds%u.seconds == 0 {
			return entity.QuotaInterval{Length: seconds / u.seconds, Unit: u.name}
		}
	}
	return entity.QuotaInterval{Length: seconds, Unit: "second"}
}
