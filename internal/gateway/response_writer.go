package gateway

import (
	"github.com/gin-gonic/gin"
)

// responseWriter counts bytes written so the access log can report body size
// even for responses gin writes directly.
type responseWriter struct {
	gin.ResponseWriter
	size int
}

func newResponseWriter(w gin.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) WriteString(s string) (int, error) {
	n, err := rw.ResponseWriter.WriteString(s)
	rw.size += n
	return n, err
}

// Size returns the number of body bytes written.
func (rw *responseWriter) Size() int {
	return rw.size
}
