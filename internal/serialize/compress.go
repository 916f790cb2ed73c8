package serialize

import (
	"compress/gzip"
	"io"
)

// gzipWriteCloser wraps an io.WriteCloser with gzip compression, layered
// the same way encryption is layered: outermost wrapper owns Close.
type gzipWriteCloser struct {
	gz   *gzip.Writer
	next io.Closer
}

// WrapGzip layers gzip compression around an underlying sink. The returned
// writer's Close flushes and closes the gzip stream, then closes next.
func WrapGzip(w io.Writer, next io.Closer) io.WriteCloser {
	return &gzipWriteCloser{gz: gzip.NewWriter(w), next: next}
}

func (g *gzipWriteCloser) Write(p []byte) (int, error) {
	return g.gz.Write(p)
}

func (g *gzipWriteCloser) Close() error {
	if err := g.gz.Close(); err != nil {
		return err
	}
	if g.next != nil {
		return g.next.Close()
	}
	return nil
}
