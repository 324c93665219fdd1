package cloudinary

import "io"

// progressReader counts consumed bytes and reports them through a callback.
// Reported counts never decrease, even when the underlying reader is retried.
type progressReader struct {
	inner    io.Reader
	total    int64
	sent     int64
	reported int64
	notify   func(sent, total int64)
}

func newProgressReader(inner io.Reader, total int64, notify func(sent, total int64)) *progressReader {
	return &progressReader{inner: inner, total: total, notify: notify}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.inner.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		p.emit(p.sent)
	}
	return n, err
}

// finish reports the final byte count once the upload response is accepted.
func (p *progressReader) finish() {
	if p.total > 0 {
		p.emit(p.total)
		return
	}
	p.emit(p.sent)
}

func (p *progressReader) emit(sent int64) {
	if p.notify == nil {
		return
	}
	if sent <= p.reported {
		return
	}
	p.reported = sent
	p.notify(sent, p.total)
}
