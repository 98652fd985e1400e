// Package catalog holds the static question bank and interviewer personalities.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fmuoria/interview-agent/internal/models"
)

// DefaultPersonality is used when no or an unknown personality is requested
const DefaultPersonality = "Friendly"

// ErrRoleNotFound is returned for a role name outside the catalog
var ErrRoleNotFound = errors.New("role not found")

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Roles         []models.Role        `yaml:"roles"`
	Personalities []models.Personality `yaml:"personalities"`
}

// Catalog is a read-only lookup of roles and personalities
type Catalog struct {
	roles         []models.Role
	personalities []models.Personality
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &Catalog{roles: f.Roles, personalities: f.Personalities}, nil
}

func validate(f *catalogFile) error {
	if len(f.Roles) == 0 {
		return fmt.Errorf("at least one role is required")
	}

	seen := make(map[string]bool)
	for i, r := range f.Roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return fmt.Errorf("role %d must have a name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate role %q", name)
		}
		seen[name] = true
		if len(r.Questions) == 0 {
			return fmt.Errorf("role %q has no questions", name)
		}
	}

	seen = make(map[string]bool)
	for i, p := range f.Personalities {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("personality %d must have a name", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate personality %q", p.Name)
		}
		seen[p.Name] = true
		if strings.TrimSpace(p.Prompt) == "" {
			return fmt.Errorf("personality %q must have a prompt", p.Name)
		}
	}

	return nil
}

// RoleNames returns role names in catalog order
func (c *Catalog) RoleNames() []string {
	names := make([]string, len(c.roles))
	for i, r := range c.roles {
		names[i] = r.Name
	}
	return names
}

// Role looks up a role by name. The returned value owns its question slice.
func (c *Catalog) Role(name string) (models.Role, bool) {
	for _, r := range c.roles {
		if r.Name == name {
			r.Questions = append([]string(nil), r.Questions...)
			return r, true
		}
	}
	return models.Role{}, false
}

// Describe returns the description of a role
func (c *Catalog) Describe(role string) (string, error) {
	r, ok := c.Role(role)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRoleNotFound, role)
	}
	return r.Description, nil
}

// QuestionsFor returns the ordered questions of a role
func (c *Catalog) QuestionsFor(role string) ([]string, error) {
	r, ok := c.Role(role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRoleNotFound, role)
	}
	return r.Questions, nil
}

// PersonalityNames returns personality names in catalog order
func (c *Catalog) PersonalityNames() []string {
	names := make([]string, len(c.personalities))
	for i, p := range c.personalities {
		names[i] = p.Name
	}
	return names
}

// Personality looks up a personality by name
func (c *Catalog) Personality(name string) (models.Personality, bool) {
	for _, p := range c.personalities {
		if p.Name == name {
			return p, true
		}
	}
	return models.Personality{}, false
}

// PersonalityOrDefault resolves name, falling back to DefaultPersonality
// and then to the first catalog entry.
func (c *Catalog) PersonalityOrDefault(name string) models.Personality {
	if p, ok := c.Personality(name); ok {
		return p
	}
	if p, ok := c.Personality(DefaultPersonality); ok {
		return p
	}
	if len(c.personalities) > 0 {
		return c.personalities[0]
	}
	return models.Personality{Name: DefaultPersonality, Style: "casual and conversational"}
}
