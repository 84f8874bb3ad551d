package entity

import (
	"slices"
	"strconv"
	"strings"
)

// QuotaResources lists the resources that can be limited per interval.
var QuotaResources = []string{
	"queries", "query_selects", "query_inserts", "errors",
	"result_rows", "result_bytes", "read_rows", "read_bytes",
	"written_bytes", "execution_time", "failed_sequential_authentications",
}

// QuotaKeys lists the accepted KEYED BY values.
var QuotaKeys = []string{
	"user_name", "ip_address", "forwarded_ip_address",
	"client_key", "client_key,user_name", "client_key,ip_address",
}

var intervalUnits = map[string]struct{}{
	"second": {}, "minute": {}, "hour": {}, "day": {},
	"week": {}, "month": {}, "quarter": {}, "year": {},
}

// QuotaLimit caps one resource within an interval.
type QuotaLimit struct {
	Resource string `json:"resource" yaml:"resource"`
	Max      string `json:"max" yaml:"max"`
}

// QuotaInterval is a tracking window with its limits.
type QuotaInterval struct {
	Length     int          `json:"length" yaml:"length"`
	Unit       string       `json:"unit" yaml:"unit"`
	Randomized bool         `json:"randomized,omitempty" yaml:"randomized,omitempty"`
	Limits     []QuotaLimit `json:"limits,omitempty" yaml:"limits,omitempty"`
}

// Quota limits resource consumption over time windows.
type Quota struct {
	Name      string          `json:"name" yaml:"name"`
	KeyedBy   string          `json:"keyed_by,omitempty" yaml:"keyed_by,omitempty"`
	Intervals []QuotaInterval `json:"intervals,omitempty" yaml:"intervals,omitempty"`
	Apply     []string        `json:"apply_to,omitempty" yaml:"apply_to,omitempty"`
}

// Validate checks required fields, units and resources.
func (q *Quota) Validate() error {
	if strings.TrimSpace(q.Name) == "" {
		return invalid(TypeQuota, "", "name", "is required")
	}
	if q.KeyedBy != "" && !slices.Contains(QuotaKeys, q.KeyedBy) {
		return invalid(TypeQuota, q.Name, "keyed_by", "has unknown key "+q.KeyedBy)
	}
	for _, iv := range q.Intervals {
		if iv.Length <= 0 {
			return invalid(TypeQuota, q.Name, "intervals", "length must be positive")
		}
		if _, ok := intervalUnits[strings.ToLower(iv.Unit)]; !ok {
			return invalid(TypeQuota, q.Name, "intervals", "has unknown unit "+iv.Unit)
		}
		for _, l := range iv.Limits {
			if !slices.Contains(QuotaResources, l.Resource) {
				return invalid(TypeQuota, q.Name, "limits", "has unknown resource "+l.Resource)
			}
			if _, err := strconv.ParseFloat(l.Max, 64); err != nil {
				return invalid(TypeQuota, q.Name, "limits", l.Resource+" max must be numeric")
			}
		}
	}
	return nil
}

// State returns an audit snapshot.
func (q *Quota) State() map[string]any { return state(q) }
