package parser

import (
	"regexp"
	"strconv"
	"time"
)

// TimestampLayout is dd/MM/yyyy:HH:mm:ss; no zone is read, values are UTC
const TimestampLayout = "02/01/2006:15:04:05"

// HTTPParser parses the access log format
// Format: 10.0.0.1 - ident - [01/01/2024:00:00:00] "GET /a.html HTTP/1.1" 200 100 "-" "curl/7.1" 5
// The dash after the ident is optional, so "10.0.0.1 - - [" reads ident "-".
type HTTPParser struct {
	re *regexp.Regexp
}

func NewHTTPParser() *HTTPParser {
	// Matches: IP, Ident, Timestamp, Method, Path, Status, Bytes, Referer, UA, Extra
	return &HTTPParser{
		re: regexp.MustCompile(`^(\S+) - (\S+) (?:- )?\[(.*?)\] "(GET|POST) (\S+) HTTP/\d\.\d" (\d{3}) (\d+) "([^"]*)" "([^"]*)" (\d+)$`),
	}
}

// Parse returns nil when the line does not match the grammar
func (p *HTTPParser) Parse(line string) *ParsedRequest {
	matches := p.re.FindStringSubmatch(line)
	if matches == nil {
		return nil
	}

	// 1=IP, 2=Ident, 3=Time, 4=Method, 5=Path, 6=Status, 7=Bytes, 8=Ref, 9=UA, 10=Extra
	// Out of range fields (31/02, 24:00:00) fail here and the line is skipped
	ts, err := time.ParseInLocation(TimestampLayout, matches[3], time.UTC)
	if err != nil {
		return nil
	}

	statusCode, err := strconv.Atoi(matches[6])
	if err != nil {
		return nil
	}
	// Byte counts too large for int64 are kept as a match, only the number is lost
	size, _ := strconv.ParseInt(matches[7], 10, 64)

	return &ParsedRequest{
		Client:       matches[1],
		Ident:        matches[2],
		Timestamp:    ts,
		RawTimestamp: matches[3],
		Method:       matches[4],
		Path:         matches[5],
		StatusCode:   statusCode,
		Bytes:        size,
		Referrer:     matches[8],
		UserAgent:    matches[9],
		Raw:          line,
	}
}
