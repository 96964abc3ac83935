package report

import (
	"botdetector/internal/summary"
	"botdetector/internal/types"
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

const header = "Potential Bot Requests:\n"

// Writer renders flag events and the final summary as plain text
type Writer struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	closer io.Closer
}

// NewWriter wraps w. Output is buffered until Flush or Close.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		buf: bufio.NewWriter(w),
	}
}

// Create opens (truncating) the report file at path
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// WriteHeader writes the report title line
func (w *Writer) WriteHeader() error {
	return w.write(header)
}

// WriteFlag writes one FLAGGED line
func (w *Writer) WriteFlag(evt types.FlagEvent) error {
	return w.write(FormatFlag(evt) + "\n")
}

// WriteSummary writes the totals block. Every line starts with a newline
// and the block has no trailing newline.
func (w *Writer) WriteSummary(s summary.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nTotal Checked: %d", s.TotalChecked)
	fmt.Fprintf(&b, "\nBad UA: %d", s.BadUA)
	fmt.Fprintf(&b, "\nNo Static: %d", s.NoStatic)
	fmt.Fprintf(&b, "\nToo Frequent: %d", s.TooFrequent)
	fmt.Fprintf(&b, "\nTotal flagged: %d", s.TotalFlagged)
	fmt.Fprintf(&b, "\nFlag rate: %s%%", FormatRate(s.FlagRate))
	return w.write(b.String())
}

// Flush pushes buffered output to the underlying writer
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// Close flushes and closes the report file, if the Writer owns one. Calling
// Close again only flushes.
func (w *Writer) Close() error {
	err := w.Flush()

	w.mu.Lock()
	closer := w.closer
	w.closer = nil
	w.mu.Unlock()

	if closer != nil {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}
	return err
}

func (w *Writer) write(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.buf.WriteString(s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// FormatFlag renders evt without a trailing newline
func FormatFlag(evt types.FlagEvent) string {
	return fmt.Sprintf("FLAGGED FOR %s: %s [%s] %s \"%s\" UA=\"%s\"",
		evt.Category.Label(), evt.Client, evt.RawTimestamp, evt.Method, evt.Path, evt.UserAgent)
}

// FormatRate renders shortest round-trip digits with
// at least one fractional digit, in scientific notation outside [1e-3, 1e7).
func FormatRate(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	// "5E-04" -> "5.0E-4", "1.2345E+07" -> "1.2345E7"
	s := strconv.FormatFloat(v, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}
