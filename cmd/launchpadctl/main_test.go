package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteRejectsUnknownRole(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"promote", "alice", "superuser"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid role "superuser"`)
}

func TestPromoteRequiresTwoArgs(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"promote", "alice"})
	cmd.SetOut(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

func TestSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd().Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["migrate"])
	assert.True(t, names["promote"])
	assert.True(t, names["purge-tokens"])
}
