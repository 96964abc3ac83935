// Package pipeline runs log lines through parsing, classification and
// reporting on a single goroutine.
package pipeline

import (
	"botdetector/internal/detect"
	"botdetector/internal/ingest"
	"botdetector/internal/metrics"
	"botdetector/internal/parser"
	"botdetector/internal/report"
	"botdetector/internal/summary"
	"botdetector/internal/types"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrFinished is returned when lines are fed after Finish
var ErrFinished = errors.New("analyzer already finished")

// Analyzer owns the per-run state: client store (through the engine),
// summary counters and the report writer.
type Analyzer struct {
	parser   parser.Parser
	engine   *detect.Engine
	summary  *summary.Accumulator
	out      *report.Writer
	finished bool
}

// NewAnalyzer wires a fresh analyzer writing to out
func NewAnalyzer(engine *detect.Engine, out *report.Writer) *Analyzer {
	return &Analyzer{
		parser:  parser.NewHTTPParser(),
		engine:  engine,
		summary: summary.NewAccumulator(),
		out:     out,
	}
}

// Start writes the report header
func (a *Analyzer) Start() error {
	return a.out.WriteHeader()
}

// ProcessLine classifies one raw line. matched is false for lines outside
// the access log grammar, which leave every counter untouched.
func (a *Analyzer) ProcessLine(line string) (events []types.FlagEvent, matched bool, err error) {
	if a.finished {
		return nil, false, ErrFinished
	}
	metrics.LinesRead.Inc()

	req := a.parser.Parse(line)
	if req == nil {
		metrics.LinesSkipped.Inc()
		return nil, false, nil
	}

	events = a.engine.ProcessRequest(req)

	flags := make([]types.FlagCategory, 0, len(events))
	for _, evt := range events {
		flags = append(flags, evt.Category)
		metrics.FlagsRaised.WithLabelValues(string(evt.Category)).Inc()
		if err := a.out.WriteFlag(evt); err != nil {
			return events, true, err
		}
		log.Debug().
			Str("client", evt.Client).
			Str("category", string(evt.Category)).
			Str("path", evt.Path).
			Msg("request flagged")
	}
	a.summary.Record(flags)
	metrics.RequestsChecked.Inc()

	return events, true, nil
}

// Run consumes lines until the channel closes or ctx is done
func (a *Analyzer) Run(ctx context.Context, lines <-chan ingest.LogLine) error {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("checked", a.summary.Checked()).Msg("run interrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if _, _, err := a.ProcessLine(line.Content); err != nil {
				return fmt.Errorf("processing line from %s: %w", line.Source, err)
			}
		}
	}
}

// Finish writes the summary block once and flushes the report
func (a *Analyzer) Finish() (summary.Summary, error) {
	if a.finished {
		return summary.Summary{}, ErrFinished
	}
	a.finished = true

	s := a.summary.Finalize()
	if err := a.out.WriteSummary(s); err != nil {
		return s, err
	}
	if err := a.out.Flush(); err != nil {
		return s, err
	}
	log.Info().
		Int("checked", s.TotalChecked).
		Int("flagged", s.TotalFlagged).
		Int("clients", a.engine.Clients().Len()).
		Msg("run complete")
	return s, nil
}
