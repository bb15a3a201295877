package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"etl", "resume", "status", "revert", "revert-schema", "watch"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}

func TestRevertFlagValidation(t *testing.T) {
	// Exactly one of --source-file / --file-hash must be given.
	revertTable = "t"
	revertSourceFile = ""
	revertFileHash = ""
	err := runRevert(revertCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")

	revertSourceFile = "/data/q1.xlsx"
	revertFileHash = "abc"
	err = runRevert(revertCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}
