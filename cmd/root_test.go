package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"analyze", "runs", "serve", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "geocentral", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "radius", "exclusive", "sample", "top", "workers", "metric", "output", "format", "geojson", "shapefile", "persist", "quiet"} {
		require.NotNil(t, analyzeCmd.Flags().Lookup(name), "analyze command should have --%s flag", name)
	}
	assert.Equal(t, "10", analyzeCmd.Flags().Lookup("radius").DefValue)
	assert.Equal(t, "50", analyzeCmd.Flags().Lookup("sample").DefValue)
	assert.Equal(t, "5", analyzeCmd.Flags().Lookup("top").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["show"])
	assert.True(t, names["stats"])

	require.NotNil(t, runsCmd.Flags().Lookup("status"))
	assert.Equal(t, "50", runsCmd.Flags().Lookup("limit").DefValue)
}
