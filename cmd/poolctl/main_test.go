package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRootCmdHasExpectedSubcommands(t *testing.T) {
	root := buildRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["run"])
	assert.True(t, names["bench"])
	assert.True(t, names["fork-demo"])
}

func TestRunCmdCompletesSmallBatch(t *testing.T) {
	root := buildRootCmd()
	root.SetArgs([]string{"run", "--jobs", "5", "--threads", "2", "--sleep", "0s"})
	require.NoError(t, root.Execute())
}
