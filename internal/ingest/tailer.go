package ingest

import (
	"fmt"
	"strings"

	"github.com/nxadm/tail"
	"github.com/rs/zerolog/log"
)

// LogLine represents a raw line from a log source
type LogLine struct {
	Source    string
	Timestamp int64 // wall clock arrival
	Content   string
}

// Ingester defines the interface for log sources
type Ingester interface {
	Start() (<-chan LogLine, error)
	Stop() error
}

// FileTailer implements Ingester for a single file
type FileTailer struct {
	path   string
	follow bool
	t      *tail.Tail
}

// NewFileTailer creates a new tailer for a path. Without follow the channel
// closes at end of file.
func NewFileTailer(path string, follow bool) *FileTailer {
	return &FileTailer{
		path:   path,
		follow: follow,
	}
}

// Start begins reading the file and returns a channel of lines
func (f *FileTailer) Start() (<-chan LogLine, error) {
	config := tail.Config{
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}
	if f.follow {
		// Follow, reopen on rotate, poll for docker mounts
		config.Follow = true
		config.ReOpen = true
		config.MustExist = false
		config.Poll = true
	}

	log.Debug().Str("path", f.path).Bool("follow", f.follow).Msg("starting tailer")

	t, err := tail.TailFile(f.path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to tail file %s: %w", f.path, err)
	}
	f.t = t

	out := make(chan LogLine)

	go func() {
		defer close(out)
		for line := range t.Lines {
			if line.Err != nil {
				log.Warn().Err(line.Err).Str("path", f.path).Msg("tail error")
				continue
			}
			out <- LogLine{
				Source:    f.path,
				Timestamp: line.Time.Unix(),
				Content:   strings.TrimSuffix(line.Text, "\r"),
			}
		}
	}()

	return out, nil
}

// Stop stops the tailing and returns the read error, if any
func (f *FileTailer) Stop() error {
	if f.t == nil {
		return nil
	}
	if err := f.t.Stop(); err != nil {
		return fmt.Errorf("failed reading %s: %w", f.path, err)
	}
	return nil
}
