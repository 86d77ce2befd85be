package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"migrate"},
		{"seed"},
		{"create-user"},
		{"set-password"},
		{"import", "students"},
		{"import", "catalog"},
		{"semester", "add"},
		{"semester", "activate"},
		{"semester", "deactivate"},
		{"recalculate"},
	} {
		cmd, rest, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestSemesterActivateRejectsBadID(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"semester", "activate", "fall"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `semester id must be a positive integer, got "fall"`)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"CMPE101", "CMPE102"}, splitList(" CMPE101, ,CMPE102 ,"))
	assert.Nil(t, splitList(""))
}

func TestPasswordFrom(t *testing.T) {
	t.Setenv("PCLINK_PASSWORD", "from-env")
	assert.Equal(t, "from-flag", passwordFrom("from-flag"))
	assert.Equal(t, "from-env", passwordFrom(""))
}
