package util

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(nil)
		},
	}
	gzipReaderPool sync.Pool
)

// GzipCompress returns data gzip-compressed with a pooled writer.
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(zw)
	zw.Reset(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GzipReader returns a pooled reader over r. Closing it hands the reader back to the pool.
func GzipReader(r io.Reader) (io.ReadCloser, error) {
	if pooled, ok := gzipReaderPool.Get().(*gzip.Reader); ok && pooled != nil {
		if err := pooled.Reset(r); err == nil {
			return &pooledGzipReadCloser{zr: pooled}, nil
		}
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &pooledGzipReadCloser{zr: zr}, nil
}

type pooledGzipReadCloser struct {
	zr   *gzip.Reader
	once sync.Once
}

func (p *pooledGzipReadCloser) Read(b []byte) (int, error) { return p.zr.Read(b) }

func (p *pooledGzipReadCloser) Close() error {
	var err error
	p.once.Do(func() {
		err = p.zr.Close()
		gzipReaderPool.Put(p.zr)
	})
	return err
}
