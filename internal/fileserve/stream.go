package fileserve

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// ChunkSize caps every read from the underlying file.
const ChunkSize = 8192

// DefaultContentType is used when the extension has no known MIME type.
const DefaultContentType = fiber.MIMEOctetStream

var errReaderClosed = errors.New("chunk reader closed")

// ChunkReader yields at most length bytes from src, never more than ChunkSize per Read.
// src is closed exactly once: when the limit or EOF is reached, or on Close.
type ChunkReader struct {
	src       io.ReadCloser
	remaining int64
	closed    bool
	once      sync.Once
	closeErr  error
}

// NewChunkReader wraps src, which must already be positioned at the first byte to deliver.
func NewChunkReader(src io.ReadCloser, length int64) *ChunkReader {
	return &ChunkReader{src: src, remaining: length}
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	if r.closed {
		if r.remaining <= 0 {
			return 0, io.EOF
		}
		return 0, errReaderClosed
	}
	if r.remaining <= 0 {
		_ = r.Close()
		return 0, io.EOF
	}
	if len(p) > ChunkSize {
		p = p[:ChunkSize]
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}

	n, err := r.src.Read(p)
	r.remaining -= int64(n)
	if err == io.EOF {
		// source shorter than announced
		r.remaining = 0
		_ = r.Close()
		return n, io.EOF
	}
	if err != nil {
		_ = r.Close()
		return n, err
	}
	if r.remaining <= 0 {
		_ = r.Close()
	}
	return n, nil
}

// Close releases the source. It is safe to call more than once.
func (r *ChunkReader) Close() error {
	r.once.Do(func() {
		r.closed = true
		r.closeErr = r.src.Close()
	})
	return r.closeErr
}

// Response describes what to send for a file request.
type Response struct {
	Status        int
	ContentType   string
	ContentLength int64
	// ContentRange is empty for full responses.
	ContentRange string
	Body         *ChunkReader
}

// Header returns the response headers to set alongside the body.
func (r *Response) Header() map[string]string {
	h := map[string]string{
		fiber.HeaderAcceptRanges:  "bytes",
		fiber.HeaderContentType:   r.ContentType,
		fiber.HeaderContentLength: strconv.FormatInt(r.ContentLength, 10),
	}
	if r.ContentRange != "" {
		h[fiber.HeaderContentRange] = r.ContentRange
	}
	return h
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return DefaultContentType
	}
	if ct := utils.GetMIME(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}

// Prepare builds a full (200) or partial (206) response over src.
// An empty rangeHeader means the whole file. src is closed if Prepare fails;
// otherwise ownership passes to Response.Body.
func Prepare(src io.ReadSeekCloser, size int64, name, rangeHeader string) (*Response, error) {
	ctype := ContentTypeFor(name)

	if rangeHeader == "" {
		return &Response{
			Status:        fiber.StatusOK,
			ContentType:   ctype,
			ContentLength: size,
			Body:          NewChunkReader(src, size),
		}, nil
	}

	span, err := ResolveRange(rangeHeader, size)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	if _, err := src.Seek(span.Start, io.SeekStart); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("seek to %d: %w", span.Start, err)
	}

	return &Response{
		Status:        fiber.StatusPartialContent,
		ContentType:   ctype,
		ContentLength: span.Length,
		ContentRange:  span.ContentRange(size),
		Body:          NewChunkReader(src, span.Length),
	}, nil
}

// UnsatisfiableContentRange is the Content-Range value sent with a 416.
func UnsatisfiableContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}
