package types

import "time"

// FlagCategory names one of the independent bot heuristics
type FlagCategory string

const (
	FlagBadUserAgent   FlagCategory = "BAD_USER_AGENT"
	FlagNoStaticAssets FlagCategory = "NO_STATIC_ASSETS"
	FlagTooFrequent    FlagCategory = "TOO_FREQUENT"
)

// Categories lists every flag category in report order
var Categories = []FlagCategory{FlagBadUserAgent, FlagNoStaticAssets, FlagTooFrequent}

// Label returns the short label used in report lines
func (c FlagCategory) Label() string {
	switch c {
	case FlagBadUserAgent:
		return "BAD UA"
	case FlagNoStaticAssets:
		return "NO STATIC"
	case FlagTooFrequent:
		return "FREQUENT"
	default:
		return string(c)
	}
}

// FlagEvent is emitted once per triggered category of a request
type FlagEvent struct {
	Client       string
	Timestamp    time.Time
	RawTimestamp string // as written in the log
	Method       string
	Path         string
	UserAgent    string
	Category     FlagCategory
}

// Config represents the application configuration
type Config struct {
	Input struct {
		LogPath string `yaml:"log_path"` // "-" reads stdin
		Follow  bool   `yaml:"follow"`
	} `yaml:"input"`

	Output struct {
		ReportPath string `yaml:"report_path"`
	} `yaml:"output"`

	State struct {
		MaxClients int `yaml:"max_clients"` // 0 keeps every client for the run
	} `yaml:"state"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen"`
	} `yaml:"metrics"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}
