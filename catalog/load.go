package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultDefinition []byte

type definition struct {
	Capabilities []*Node `yaml:"capabilities"`
}

// Load reads a YAML catalog definition.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidCatalog, err)
	}
	if len(def.Capabilities) == 0 {
		return nil, fmt.Errorf("%w: no capabilities defined", ErrInvalidCatalog)
	}
	return New(def.Capabilities...)
}

var loadDefault = sync.OnceValue(func() *Catalog {
	c, err := Load(bytes.NewReader(defaultDefinition))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded definition: %v", err))
	}
	return c
})

// Default returns the built-in ClickHouse privilege catalog. It is loaded
// once per process.
func Default() *Catalog { return loadDefault() }
