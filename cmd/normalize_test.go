package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		showDiff = false
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestNormalizeCommand(t *testing.T) {
	out := runRoot(t, "**Act One**\n***\n\n\n\nAnna: Hi\n", "normalize")
	assert.Equal(t, "Act One\n\nAnna: Hi\n", out)
}

func TestNormalizeCommandDiff(t *testing.T) {
	out := runRoot(t, "**Act One**\nAnna: Hi", "normalize", "--diff")
	assert.Equal(t, "[-**-]Act One[-**-]\nAnna: Hi\n", out)
}

func TestNormalizeCommandUnchanged(t *testing.T) {
	out := runRoot(t, "Anna: Hi", "normalize", "--diff")
	assert.Equal(t, "already normalized\n", out)
}
