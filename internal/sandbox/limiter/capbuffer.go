package limiter

import "bytes"

// capBuffer keeps the first limit bytes written and silently drops the
// rest, so a flooding child cannot exhaust memory through its output.
type capBuffer struct {
	buf   bytes.Buffer
	limit int64
}

func newCapBuffer(limit int64) *capBuffer {
	return &capBuffer{limit: limit}
}

func (b *capBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - int64(b.buf.Len())
	if remaining > 0 {
		if int64(len(p)) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *capBuffer) String() string {
	return b.buf.String()
}
