package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCleanCommand(t *testing.T) {
	cmd := NewCleanCommand()

	assert.Equal(t, "clean", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"findings", "fields", "dry-run", "export-schema", "schema", "maintenance", "audit-dir"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewSchemaCommand(t *testing.T) {
	cmd := NewSchemaCommand()

	assert.Equal(t, "schema", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	for _, flag := range []string{"format", "out"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewInitCommand(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [database]", cmd.Use)
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
	for _, flag := range []string{"sample", "force"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}
