package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectsCommand(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"projects"})

	require.NoError(t, rootCmd.Execute())
	out := buf.String()

	assert.Contains(t, out, "ACPF - Algo project (ACPF)")
	assert.Contains(t, out, "required fields: algo_id, model_type")
	assert.Contains(t, out, "DPR - Data project (DPR)")
	assert.Contains(t, out, "DMCD - Mobile project (DMCD)")
	assert.Contains(t, out, "custom fields:   device_os, test_device")
	assert.Contains(t, out, "DEFAULT - Standard project (no custom fields required)")
}
