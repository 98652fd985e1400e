package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogRoles(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"Software Engineer", "Data Scientist", "Product Manager", "Marketing Manager", "UX Designer"}, c.RoleNames())
	for _, name := range c.RoleNames() {
		qs, err := c.QuestionsFor(name)
		require.NoError(t, err)
		assert.Len(t, qs, 5, "role %s", name)
	}

	desc, err := c.Describe("Software Engineer")
	require.NoError(t, err)
	assert.Equal(t, "Full-stack software development position", desc)
}

func TestUnknownRole(t *testing.T) {
	c := Default()

	_, err := c.QuestionsFor("Astronaut")
	assert.True(t, errors.Is(err, ErrRoleNotFound))

	_, err = c.Describe("Astronaut")
	assert.True(t, errors.Is(err, ErrRoleNotFound))
}

func TestQuestionsForReturnsCopy(t *testing.T) {
	c := Default()

	qs, err := c.QuestionsFor("Data Scientist")
	require.NoError(t, err)
	qs[0] = "mutated"

	again, err := c.QuestionsFor("Data Scientist")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0])
}

func TestPersonalityOrDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "Technical", c.PersonalityOrDefault("Technical").Name)
	assert.Equal(t, DefaultPersonality, c.PersonalityOrDefault("Grumpy").Name)
	assert.Equal(t, []string{"Professional", "Friendly", "Technical"}, c.PersonalityNames())
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "No roles",
			yaml: "roles: []\n",
		},
		{
			name: "Role without questions",
			yaml: "roles:\n  - name: Tester\n    description: QA\n",
		},
		{
			name: "Duplicate role",
			yaml: "roles:\n  - name: A\n    questions: [q]\n  - name: A\n    questions: [q]\n",
		},
		{
			name: "Personality without prompt",
			yaml: "roles:\n  - name: A\n    questions: [q]\npersonalities:\n  - name: Calm\n",
		},
		{
			name: "Malformed YAML",
			yaml: "roles: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	content := "roles:\n  - name: SRE\n    description: Reliability\n    questions:\n      - What is an SLO?\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SRE"}, c.RoleNames())
	assert.Equal(t, DefaultPersonality, c.PersonalityOrDefault("").Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
