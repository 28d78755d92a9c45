//go:generate go run ../../cmd/gen-deploy-schema schema.json

// Package deployconfig parses the optional on-disk YAML configuration
// file for the deploy daemon, so an operator running many daemons on one
// host doesn't have to repeat `-O` flags on every invocation. CLI flags
// always take precedence over the file (see cmd/git-deploy).
package deployconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	schemareflector "github.com/swaggest/jsonschema-go"
)

// Root is the top-level shape of a deploy daemon config file.
type Root struct {
	Branch     string   `json:"branch,omitempty" yaml:"branch,omitempty"`
	Build      string   `json:"build,omitempty" yaml:"build,omitempty"`
	FixNasty   bool     `json:"fix_nasty,omitempty" yaml:"fix_nasty,omitempty"`
	Background bool     `json:"background,omitempty" yaml:"background,omitempty"`
	MaxDelay   int      `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
	Options    []string `json:"options,omitempty" yaml:"options,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// ParseFile reads and parses filename. A missing file is not an error:
// it returns a zero Root, since the config file is entirely optional.
func ParseFile(filename string) (*Root, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return &Root{}, nil
		}
		return nil, fmt.Errorf("read deploy config %s: %w", filename, err)
	}
	return Parse(bs)
}

// Parse unmarshals raw YAML bytes into a Root.
func Parse(bs []byte) (*Root, error) {
	var root Root
	if err := yaml.Unmarshal(bs, &root); err != nil {
		return nil, fmt.Errorf("unmarshal deploy config: %w", err)
	}
	return &root, nil
}

// ReflectSchema generates the JSON schema for Root, consumed by
// cmd/gen-deploy-schema, which the go:generate line above runs to write
// schema.json from this struct's fields.
func ReflectSchema() ([]byte, error) {
	reflector := schemareflector.Reflector{}

	s, err := reflector.Reflect(Root{})
	if err != nil {
		return nil, fmt.Errorf("reflect deploy config schema: %w", err)
	}

	return json.MarshalIndent(s, "", "  ")
}

// Merge overlays non-zero fields of override onto base, CLI flags (the
// override) always winning over the file (the base).
func Merge(base, override *Root) *Root {
	merged := *base

	if override.Branch != "" {
		merged.Branch = override.Branch
	}
	if override.Build != "" {
		merged.Build = override.Build
	}
	if override.FixNasty {
		merged.FixNasty = true
	}
	if override.Background {
		merged.Background = true
	}
	if override.MaxDelay != 0 {
		merged.MaxDelay = override.MaxDelay
	}
	if len(override.Options) > 0 {
		merged.Options = override.Options
	}

	return &merged
}
