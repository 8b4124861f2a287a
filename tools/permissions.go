package tools

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Permissions decides which registered tools may be used.
// Deny wins over allow; names absent from both lists fall back to
// DefaultAllow.
type Permissions struct {
	DefaultAllow bool     `toml:"default_allow"`
	Allow        []string `toml:"allow"`
	Deny         []string `toml:"deny"`
}

// DefaultPermissions allows every tool.
func DefaultPermissions() *Permissions {
	return &Permissions{DefaultAllow: true}
}

// LoadPermissions loads permissions from a TOML file.
func LoadPermissions(path string) (*Permissions, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read permissions file: %w", err)
	}
	return ParsePermissions(string(content))
}

// ParsePermissions parses permissions from TOML content.
func ParsePermissions(content string) (*Permissions, error) {
	var p Permissions
	if _, err := toml.Decode(content, &p); err != nil {
		return nil, fmt.Errorf("failed to parse permissions: %w", err)
	}
	return &p, nil
}

// Decide returns whether the named tool may be used and, when denied,
// a short reason. A nil receiver allows everything.
func (p *Permissions) Decide(name string) (bool, string) {
	if p == nil {
		return true, ""
	}
	for _, d := range p.Deny {
		if d == name {
			return false, "denylisted"
		}
	}
	for _, a := range p.Allow {
		if a == name {
			return true, ""
		}
	}
	if p.DefaultAllow {
		return true, ""
	}
	return false, "not allowlisted"
}
