package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xraph/steward"
	"github.com/xraph/steward/entity"
)

// desiredFile is the on-disk shape of a desired-state file:
//
//	identities:
//	  - type: user
//	    name: alice
//	    grants:
//	      - permission: SELECT
//	        scope: sales.*
//	    roles:
//	      - role: analyst
type desiredFile struct {
	Identities []steward.Desired `yaml:"identities"`
}

// LoadDesired reads a desired-state file.
func LoadDesired(path string) ([]steward.Desired, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeDesired(f)
}

// DecodeDesired parses desired state from r. Entity types are matched
// case-insensitively and every identity must be a user or a role.
func DecodeDesired(r io.Reader) ([]steward.Desired, error) {
	var doc desiredFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse desired state: %w", err)
	}

	seen := make(map[string]bool, len(doc.Identities))
	for i := range doc.Identities {
		d := &doc.Identities[i]
		d.Type = entity.Type(strings.ToUpper(strings.TrimSpace(string(d.Type))))
		if d.Type != entity.TypeUser && d.Type != entity.TypeRole {
			return nil, fmt.Errorf("identity %d: type must be user or role, got %q", i, d.Type)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("identity %d: name is required", i)
		}
		key := string(d.Type) + "/" + d.Name
		if seen[key] {
			return nil, fmt.Errorf("identity %d: %s %s listed twice", i, d.Type, d.Name)
		}
		seen[key] = true
	}
	return doc.Identities, nil
}
