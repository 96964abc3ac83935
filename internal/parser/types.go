package parser

import "time"

// ParsedRequest is one access log line broken into fields
type ParsedRequest struct {
	Client       string    // source IP
	Ident        string
	Timestamp    time.Time // always UTC
	RawTimestamp string
	Method       string
	Path         string
	StatusCode   int
	Bytes        int64
	Referrer     string
	UserAgent    string
	Raw          string
}

// Parser defines the interface for log parsers
type Parser interface {
	Parse(line string) *ParsedRequest
}
