package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
	"Sentinel/pkg/config"
)

const sampleInput = `{"instrument":"600519","bars":[{"open":10,"high":10,"low":10,"close":10,"volume":1000}]}`

func TestReadInput(t *testing.T) {
	in, err := readInput(strings.NewReader(sampleInput), "-")
	require.NoError(t, err)
	assert.Equal(t, "600519", in.Instrument)
	assert.Len(t, in.Bars, 1)

	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleInput), 0o644))
	in, err = readInput(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "600519", in.Instrument)

	_, err = readInput(strings.NewReader("{"), "-")
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	in, err := readInput(strings.NewReader(sampleInput), "-")
	require.NoError(t, err)

	out, err := replay(config.Default(), in, "bull")
	require.NoError(t, err)
	assert.Equal(t, "600519", out.Verdict.Instrument)
	assert.Equal(t, models.RegimeBull, out.Fusion.Regime)
	assert.False(t, out.Fusion.Sufficient)

	_, err = replay(config.Default(), &models.EvaluationInput{Instrument: "600519"}, "")
	assert.Error(t, err)

	_, err = replay(config.Default(), in, "sideways")
	assert.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleInput), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"replay", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--file", path})
	require.NoError(t, rootCmd.Execute())

	var out models.Evaluation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "600519", out.Verdict.Instrument)
}
