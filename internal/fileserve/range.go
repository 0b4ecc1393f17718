// Package fileserve turns a stored file and an optional Range header into a
// 200 or 206 response body that is read lazily in fixed-size chunks.
package fileserve

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRange is returned for Range values that are not "bytes=<start>-[<end>]".
	ErrMalformedRange = errors.New("malformed range")
	// ErrRangeNotSatisfiable is returned when the range starts at or past the end of the file.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// Span is an inclusive byte interval of a file.
type Span struct {
	Start  int64
	End    int64
	Length int64
}

// ContentRange formats the span for a Content-Range header.
func (s Span) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", s.Start, s.End, size)
}

// ResolveRange parses a single "bytes=start-end" range against a file of the given size.
// An omitted end, or one past the last byte, is clamped to size-1.
// Suffix ranges ("bytes=-500") and multiple ranges are rejected as malformed.
func ResolveRange(header string, size int64) (Span, error) {
	set, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return Span{}, ErrMalformedRange
	}
	startStr, endStr, ok := strings.Cut(set, "-")
	if !ok {
		return Span{}, ErrMalformedRange
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	start, err := parseOffset(startStr)
	if err != nil {
		return Span{}, err
	}
	end := size - 1
	if endStr != "" {
		e, err := parseOffset(endStr)
		if err != nil {
			return Span{}, err
		}
		if e < start {
			return Span{}, ErrMalformedRange
		}
		if e < end {
			end = e
		}
	}

	if start >= size {
		return Span{}, ErrRangeNotSatisfiable
	}
	return Span{Start: start, End: end, Length: end - start + 1}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, ErrMalformedRange
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrMalformedRange
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// too many digits for int64, still past any real file
		return math.MaxInt64, nil
	}
	if err != nil {
		return 0, ErrMalformedRange
	}
	return n, nil
}
