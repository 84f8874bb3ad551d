// Package assignment defines role assignments: a role held by a user or
// another role.
package assignment

// Assignment is a role held by an identity. AdminOption allows the holder
// to grant the role onward.
type Assignment struct {
	Role        string `json:"role" yaml:"role"`
	AdminOption bool   `json:"admin_option,omitempty" yaml:"admin_option,omitempty"`
}

// Names returns the role names in order.
func Names(as []Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Role
	}
	return out
}

// FromNames builds assignments without admin option.
func FromNames(roles ...string) []Assignment {
	out := make([]Assignment, len(roles))
	for i, r := range roles {
		out[i] = Assignment{Role: r}
	}
	return out
}
