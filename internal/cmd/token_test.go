package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTokenNewWritesYAMLFragment(t *testing.T) {
	dir := t.TempDir()
	tokenFile = filepath.Join(dir, "auth", "token.yaml")
	defer func() { tokenFile = "" }()

	require.NoError(t, tokenNewCmd.RunE(tokenNewCmd, nil))

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)

	var fragment tokenFileConfig
	require.NoError(t, yaml.Unmarshal(data, &fragment))
	require.NotEmpty(t, fragment.Auth.Token)

	info, err := os.Stat(tokenFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenNewGeneratesDistinctTokens(t *testing.T) {
	dir := t.TempDir()

	tokens := map[string]bool{}
	for i := 0; i < 3; i++ {
		tokenFile = filepath.Join(dir, "token.yaml")
		require.NoError(t, tokenNewCmd.RunE(tokenNewCmd, nil))

		data, err := os.ReadFile(tokenFile)
		require.NoError(t, err)

		var fragment tokenFileConfig
		require.NoError(t, yaml.Unmarshal(data, &fragment))
		tokens[fragment.Auth.Token] = true
	}
	tokenFile = ""

	require.Len(t, tokens, 3)
}
