package ingest

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxLineSize = 1024 * 1024

// ReaderIngester streams lines from any reader, e.g. stdin
type ReaderIngester struct {
	r      io.Reader
	source string
	done   chan struct{}
	err    error
}

func NewReaderIngester(r io.Reader, source string) *ReaderIngester {
	return &ReaderIngester{
		r:      r,
		source: source,
	}
}

// Start reads the input in the background; the channel closes at EOF
func (i *ReaderIngester) Start() (<-chan LogLine, error) {
	out := make(chan LogLine)
	i.done = make(chan struct{})

	go func() {
		defer close(i.done)
		defer close(out)

		scanner := bufio.NewScanner(i.r)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			out <- LogLine{
				Source:    i.source,
				Timestamp: now(),
				Content:   strings.TrimSuffix(scanner.Text(), "\r"),
			}
		}
		if err := scanner.Err(); err != nil {
			log.Error().Err(err).Str("source", i.source).Msg("read failed")
			i.err = err
		}
	}()

	return out, nil
}

// Stop waits for the reader to finish and returns its error. The channel
// returned by Start must be drained first.
func (i *ReaderIngester) Stop() error {
	if i.done == nil {
		return nil
	}
	<-i.done
	return i.err
}

func now() int64 {
	return time.Now().Unix()
}
