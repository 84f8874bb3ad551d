package effective

import "github.com/xraph/steward/permission"

// Entry groups every source of one grant.
type Entry struct {
	Grant   permission.Grant      `json:"grant"`
	Sources []permission.Extended `json:"sources"`
}

// Direct reports whether the identity holds the grant itself.
func (e Entry) Direct() bool {
	for _, s := range e.Sources {
		if s.Source == permission.SourceDirect {
			return true
		}
	}
	return false
}

// InheritedFrom lists the roles the grant is inherited through.
func (e Entry) InheritedFrom() []string {
	var roles []string
	for _, s := range e.Sources {
		if s.Source == permission.SourceRole {
			roles = append(roles, s.Role)
		}
	}
	return roles
}

// Summarize groups extended grants by grant key, in order of first
// appearance.
func Summarize(extended []permission.Extended) []Entry {
	index := make(map[string]int, len(extended))
	var out []Entry
	for _, x := range extended {
		k := x.Key()
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Entry{Grant: x.Grant})
		}
		out[i].Sources = append(out[i].Sources, x)
	}
	return out
}

// Grants returns the distinct grants, dropping provenance.
func Grants(extended []permission.Extended) []permission.Grant {
	out := make([]permission.Grant, 0, len(extended))
	for _, x := range extended {
		out = append(out, x.Grant)
	}
	return permission.Dedup(out)
}
