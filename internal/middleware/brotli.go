package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// DefaultBrotliMinLength keeps small envelopes uncompressed; only quiz payloads and
// result listings are worth the CPU.
const DefaultBrotliMinLength = 1024

// brotliWriter buffers the body until it is known to reach minLength, then switches
// to compressed output. Anything that flushes before that goes out uncompressed.
type brotliWriter struct {
	gin.ResponseWriter
	quality     int
	minLength   int
	buf         []byte
	enc         *brotli.Writer
	passthrough bool
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	switch {
	case w.passthrough:
		return w.ResponseWriter.Write(data)
	case w.enc != nil:
		return w.enc.Write(data)
	}

	w.buf = append(w.buf, data...)
	if len(w.buf) < w.minLength {
		return len(data), nil
	}
	if w.ResponseWriter.Header().Get("Content-Encoding") != "" {
		w.passthrough = true
		_, err := w.ResponseWriter.Write(w.buf)
		w.buf = nil
		return len(data), err
	}

	w.ResponseWriter.Header().Set("Content-Encoding", "br")
	w.ResponseWriter.Header().Del("Content-Length")
	w.enc = brotli.NewWriterLevel(w.ResponseWriter, w.quality)
	_, err := w.enc.Write(w.buf)
	w.buf = nil
	return len(data), err
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *brotliWriter) Flush() {
	if w.enc != nil {
		_ = w.enc.Flush()
	} else if !w.passthrough {
		w.passthrough = true
		if len(w.buf) > 0 {
			_, _ = w.ResponseWriter.Write(w.buf)
			w.buf = nil
		}
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) finish() error {
	if w.enc != nil {
		return w.enc.Close()
	}
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf)
	w.buf = nil
	return err
}

// Brotli compresses responses of at least minLength bytes for clients that accept br.
func Brotli(minLength int) gin.HandlerFunc {
	if minLength <= 0 {
		minLength = DefaultBrotliMinLength
	}

	return func(c *gin.Context) {
		if isUpgrade(c.Request) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		w := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        brotli.DefaultCompression,
			minLength:      minLength,
		}
		c.Writer = w
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

// isUpgrade reports WebSocket handshakes, which must reach the handler unwrapped.
func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
