package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// GzipCompressor wraps preference export blobs; gzip keeps the downloads
// readable with standard tooling.
type GzipCompressor struct{}

func (g GzipCompressor) Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	writer := gzip.NewWriter(&b)

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("error compressing blob: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing gzip stream: %w", err)
	}
	return b.Bytes(), nil
}

func (g GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error reading gzip header: %w", err)
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error decompressing blob: %w", err)
	}
	return out, nil
}
