package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	expected := []string{
		"index", "search", "tree", "graph", "cycles",
		"context", "related", "history", "stats", "serve", "version",
	}
	registered := make(map[string]bool)
	for _, c := range root.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "command %q must be registered", name)
	}
}

func TestRootCmd_Help(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "codegraph")
	assert.Contains(t, out.String(), "search")
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "codegraph version")
}

func TestServeCmd_UnknownTransport(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"serve", "--transport", "bogus", "--root", t.TempDir()})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "score=0.0164", formatScore(1.0/61.0))
}
