package fetch

import (
	"errors"
	"io"
)

// ErrBodyTooLarge is returned when a response body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("response body too large")

// LimitBody returns a Reader that yields at most max bytes of r.
// Reading past max bytes fails with ErrBodyTooLarge instead of silently truncating.
func LimitBody(r io.Reader, max int64) io.Reader {
	return &limitedReader{r: r, remaining: max}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// probe one byte: a body of exactly max bytes is fine
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			return 0, ErrBodyTooLarge
		}
		if err == nil {
			return 0, nil
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
