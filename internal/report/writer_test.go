package report

import (
	"botdetector/internal/summary"
	"botdetector/internal/types"
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(category types.FlagCategory) types.FlagEvent {
	return types.FlagEvent{
		Client:       "10.0.0.1",
		RawTimestamp: "01/01/2024:00:00:00",
		Method:       "GET",
		Path:         "/a.html",
		UserAgent:    "curl/7.1",
		Category:     category,
	}
}

func TestFormatFlag(t *testing.T) {
	assert.Equal(t,
		`FLAGGED FOR BAD UA: 10.0.0.1 [01/01/2024:00:00:00] GET "/a.html" UA="curl/7.1"`,
		FormatFlag(sampleEvent(types.FlagBadUserAgent)))
	assert.Equal(t,
		`FLAGGED FOR NO STATIC: 10.0.0.1 [01/01/2024:00:00:00] GET "/a.html" UA="curl/7.1"`,
		FormatFlag(sampleEvent(types.FlagNoStaticAssets)))
	assert.Equal(t,
		`FLAGGED FOR FREQUENT: 10.0.0.1 [01/01/2024:00:00:00] GET "/a.html" UA="curl/7.1"`,
		FormatFlag(sampleEvent(types.FlagTooFrequent)))
}

func TestFormatRate(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{100, "100.0"},
		{0, "0.0"},
		{150, "150.0"},
		{12.5, "12.5"},
		{0.001, "0.001"},
		{0.0005, "5.0E-4"},
		{12345678, "1.2345678E7"},
		{1e7, "1.0E7"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatRate(tc.in), "rate %v", tc.in)
	}
}

func TestWriter_Report(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteFlag(sampleEvent(types.FlagBadUserAgent)))
	require.NoError(t, w.WriteSummary(summary.Summary{
		TotalChecked: 2,
		BadUA:        1,
		TotalFlagged: 1,
		FlagRate:     50,
	}))

	// Nothing reaches the target before Flush
	assert.Zero(t, buf.Len())
	require.NoError(t, w.Close())

	want := "Potential Bot Requests:\n" +
		"FLAGGED FOR BAD UA: 10.0.0.1 [01/01/2024:00:00:00] GET \"/a.html\" UA=\"curl/7.1\"\n" +
		"\nTotal Checked: 2" +
		"\nBad UA: 1" +
		"\nNo Static: 0" +
		"\nToo Frequent: 0" +
		"\nTotal flagged: 1" +
		"\nFlag rate: 50.0%"
	assert.Equal(t, want, buf.String())
}

func TestWriter_EmptySummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteSummary(summary.NewAccumulator().Finalize()))
	require.NoError(t, w.Flush())

	assert.Contains(t, buf.String(), "\nFlag rate: NaN%")
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0644))

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, header, string(data))

	_, err = Create(filepath.Join(t.TempDir(), "missing", "out.txt"))
	assert.Error(t, err)
}
