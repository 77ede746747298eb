package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CLEANWATCH_CONFIG", "")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--no-color", "--log-level", "error"))
	err := root.Execute()
	if errOut.Len() > 0 {
		t.Logf("stderr: %s", errOut.String())
	}
	return out.String(), err
}

func TestCLI_MaxBg(t *testing.T) {
	out, err := run(t, "maxbg")
	require.NoError(t, err)
	assert.Contains(t, out, "0.0912")

	out, err = run(t, "maxbg", "--days", "1")
	require.NoError(t, err)
	assert.Equal(t, "Not possible.\n", out)
}

func TestCLI_T3SigmaRoundTrip(t *testing.T) {
	out, err := run(t, "t3sigma", "--bg", "0.0912058")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "15"), out)
}

func TestCLI_Print(t *testing.T) {
	out, err := run(t, "print", "--preset", "16m")
	require.NoError(t, err)
	for _, name := range []string{"LIQUID", "GD", "PMT", "PSUP", "TANK", "IBEAM"} {
		assert.Contains(t, out, "Details for "+name+":")
	}
	assert.Contains(t, out, "U238 chain")
}

func TestCLI_Ratio(t *testing.T) {
	out, err := run(t, "ratio")
	require.NoError(t, err)
	r, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	require.NoError(t, err, out)
	assert.Greater(t, r, 0.0)

	out, err = run(t, "ratio", "--days", "1")
	require.NoError(t, err)
	assert.Equal(t, "Not possible.\n", out)
}

func TestCLI_Budget_Reports(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "budget.csv")
	jsonPath := filepath.Join(dir, "out", "budget.json")
	htmlPath := filepath.Join(dir, "out", "budget.html")

	out, err := run(t, "budget", "--method", "e", "--csv", csvPath, "--json", jsonPath, "--html", htmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Revised component activities:")
	assert.Contains(t, out, "WaterVolume:")
	assert.Contains(t, out, "Rn222:")

	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, "component,isotope,format,current_rate,revised_rate,factor", lines[0])
	// 1 + 3 + 3 + 3 + 5 isotopes in the default layout
	assert.Len(t, lines, 1+15)

	b, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var rep report
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.Equal(t, "even", rep.Method)
	assert.Len(t, rep.Rows, 15)
	assert.InDelta(t, rep.MaxBackground, rep.RevisedAcc, rep.MaxBackground*1e-6)

	b, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Cleanwatch Budget Report")
}

func TestCLI_Budget_Infeasible(t *testing.T) {
	out, err := run(t, "budget", "--days", "1")
	require.NoError(t, err)
	assert.Equal(t, "Not possible.\n", out)

	_, err = run(t, "budget", "--method", "z")
	assert.Error(t, err)
}

func TestCLI_Breakdown(t *testing.T) {
	out, err := run(t, "breakdown", "pmt")
	require.NoError(t, err)
	assert.Contains(t, out, "PMT Component")
	assert.Contains(t, out, "% of detector")
	assert.Contains(t, out, "K40")
	assert.NotContains(t, out, "TANK")

	_, err = run(t, "breakdown", "nope")
	assert.Error(t, err)
}

func TestCLI_Shares(t *testing.T) {
	out, err := run(t, "shares", "-k", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "FRACTION")
	assert.Contains(t, out, "TANK")
}

func TestCLI_Isotopes(t *testing.T) {
	out, err := run(t, "isotopes")
	require.NoError(t, err)
	for _, name := range []string{"U238", "Th232", "K40", "Co60"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "234Pa:1 214Pb:1 214Bi:1 210Bi:1 210Tl:0.0021")
	assert.Contains(t, out, "CONTRIBUTORS (BRANCH)")
}

func TestCLI_ConfigDump(t *testing.T) {
	out, err := run(t, "config", "--preset", "16m")
	require.NoError(t, err)
	assert.Contains(t, out, "preset: 16m")
	assert.Contains(t, out, "name: IBEAM")
	assert.Contains(t, out, "signal: 0.485")
}

func TestCLI_BadPreset(t *testing.T) {
	_, err := run(t, "bgr", "--preset", "nope")
	assert.Error(t, err)
}
