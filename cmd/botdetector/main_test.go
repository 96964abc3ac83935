package main

import (
	"botdetector/internal/report"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `10.0.0.1 - - [01/01/2024:00:00:00] "GET /a.html HTTP/1.1" 200 100 "-" "curl/7.1" 5
10.0.0.2 - - [01/01/2024:00:00:01] "GET /index.html HTTP/1.1" 200 512 "-" "Mozilla/5.0" 7
this line is ignored
10.0.0.2 - - [01/01/2024:00:00:01] "GET /logo.png HTTP/1.1" 200 2048 "/index.html" "Mozilla/5.0" 3
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "access.log")
	output := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(input, []byte(sampleLog), 0644))

	stdout, err := execute(t, "run", "-i", input, "-o", output, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Output written to "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	flagged, checked := 1, 3
	want := "Potential Bot Requests:\n" +
		"FLAGGED FOR BAD UA: 10.0.0.1 [01/01/2024:00:00:00] GET \"/a.html\" UA=\"curl/7.1\"\n" +
		"\nTotal Checked: 3" +
		"\nBad UA: 1" +
		"\nNo Static: 0" +
		"\nToo Frequent: 0" +
		"\nTotal flagged: 1" +
		"\nFlag rate: " + report.FormatRate(float64(flagged)/float64(checked)*100) + "%"
	assert.Equal(t, want, string(data))
}

func TestRunCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "access.log")
	output := filepath.Join(dir, "from-config.txt")
	require.NoError(t, os.WriteFile(input, []byte(""), 0644))

	cfgPath := filepath.Join(dir, "config.yml")
	cfg := "input:\n  log_path: " + input + "\noutput:\n  report_path: " + output + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))

	_, err := execute(t, "run", "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\nTotal flagged: 0\nFlag rate: NaN%"))
}

func TestRunCommand_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run",
		"-i", filepath.Join(dir, "missing.log"),
		"-o", filepath.Join(dir, "out.txt"),
		"--log-level", "error")
	assert.Error(t, err)
}

func TestRunCommand_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "access.log")
	require.NoError(t, os.WriteFile(input, []byte(sampleLog), 0644))

	// The source is already started when the report fails to open
	_, err := execute(t, "run",
		"-i", input,
		"-o", filepath.Join(dir, "no-such-dir", "out.txt"),
		"--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open report file")
}

func TestRunCommand_NegativeMaxClients(t *testing.T) {
	_, err := execute(t, "run", "--max-clients", "-1", "--log-level", "error")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "botdetector dev")
}
