package detect

import (
	"botdetector/internal/feature"
	"botdetector/internal/parser"
	"botdetector/internal/types"
	"strings"
	"time"
)

const (
	// RapidFireWindow bounds the TOO_FREQUENT check
	RapidFireWindow = 10 * time.Second
	// RapidFireThreshold is the window size that must be exceeded
	RapidFireThreshold = 5
	// NoStaticMinRequests is the window size a client without static hits must exceed
	NoStaticMinRequests = 3
)

var (
	staticSuffixes  = []string{".jpg", ".png", ".css", ".js"}
	badAgentMarkers = []string{"curl", "python", "java"}
)

// Engine is the core classification engine
type Engine struct {
	clients *feature.Accumulator
}

// NewEngine creates a new engine backed by the given client store
func NewEngine(clients *feature.Accumulator) *Engine {
	if clients == nil {
		clients = feature.NewAccumulator(0)
	}
	return &Engine{
		clients: clients,
	}
}

// Clients exposes the client state store owned by the engine
func (e *Engine) Clients() *feature.Accumulator {
	return e.clients
}

// Classify updates the client's state with req and returns the triggered
// categories in report order.
func (e *Engine) Classify(req *parser.ParsedRequest) []types.FlagCategory {
	e.clients.AddRequest(req.Client, req.Timestamp, IsStaticAsset(req.Path))

	badUA := IsBadUserAgent(req.UserAgent)

	// NO_STATIC_ASSETS reads the window length after this prune, so its
	// "more than 3 requests" is counted inside the rapid-fire window only.
	snap := e.clients.Prune(req.Client, req.Timestamp, RapidFireWindow)
	noStatic := snap.StaticHits == 0 && snap.WindowSize > NoStaticMinRequests
	tooFrequent := snap.WindowSize > RapidFireThreshold

	var flags []types.FlagCategory
	if badUA {
		flags = append(flags, types.FlagBadUserAgent)
	}
	if noStatic {
		flags = append(flags, types.FlagNoStaticAssets)
	}
	if tooFrequent {
		flags = append(flags, types.FlagTooFrequent)
	}
	return flags
}

// ProcessRequest classifies req and returns one event per triggered category
func (e *Engine) ProcessRequest(req *parser.ParsedRequest) []types.FlagEvent {
	flags := e.Classify(req)
	if len(flags) == 0 {
		return nil
	}

	events := make([]types.FlagEvent, 0, len(flags))
	for _, category := range flags {
		events = append(events, types.FlagEvent{
			Client:       req.Client,
			Timestamp:    req.Timestamp,
			RawTimestamp: req.RawTimestamp,
			Method:       req.Method,
			Path:         req.Path,
			UserAgent:    req.UserAgent,
			Category:     category,
		})
	}
	return events
}

// IsBadUserAgent reports an empty UA or one naming a scripting client
func IsBadUserAgent(ua string) bool {
	if ua == "" {
		return true
	}
	lower := strings.ToLower(ua)
	for _, marker := range badAgentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsStaticAsset reports a case-sensitive static asset suffix on path
func IsStaticAsset(path string) bool {
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
