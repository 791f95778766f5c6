// Package compression provides pluggable compressors for stored article content
// and preference export blobs.
package compression

// Compressor is a symmetric compress/decompress pair.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}
