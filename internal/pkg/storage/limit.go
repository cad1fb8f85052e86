package storage

import (
	"errors"
	"io"
)

var ErrTooLarge = errors.New("storage: object exceeds max size")

// LimitReader returns a reader that yields at most limit bytes of r and then
// fails with ErrTooLarge if r has more data. Unlike io.LimitReader it does
// not truncate silently.
func LimitReader(r io.Reader, limit int64) io.Reader {
	return &maxBytesReader{r: r, max: limit}
}

type maxBytesReader struct {
	r     io.Reader
	max   int64
	read  int64
	buf   [1]byte
	ended bool
}

func (m *maxBytesReader) Read(p []byte) (int, error) {
	if m.read >= m.max {
		if m.ended {
			return 0, ErrTooLarge
		}

		// probe one byte to tell "exactly max" from "over max"
		n, err := m.r.Read(m.buf[:])
		if n > 0 || err == nil {
			m.ended = true
			return 0, ErrTooLarge
		}
		return 0, err
	}

	remaining := m.max - m.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := m.r.Read(p)
	m.read += int64(n)
	return n, err
}
