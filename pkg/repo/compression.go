package repo

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

type Compression string

const (
	CompressionNone Compression = ""
	CompressionGZIP Compression = "gz"
	CompressionXZ   Compression = "xz"
)

func ParseCompression(s string) Compression {
	switch s {
	case "gz", ".gz":
		return CompressionGZIP
	case "xz", ".xz":
		return CompressionXZ
	default:
		return CompressionNone
	}
}

func (c Compression) String() string {
	return string(c)
}

func (c Compression) Extension() string {
	switch c {
	case CompressionGZIP:
		return ".gz"
	case CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

// ContentType is the media type of a file compressed with c.
func (c Compression) ContentType() string {
	switch c {
	case CompressionGZIP:
		return "application/x-gzip"
	case CompressionXZ:
		return "application/x-xz"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (c Compression) Compress(data []byte) ([]byte, error) {
	switch c {
	case CompressionGZIP:
		var buf bytes.Buffer
		compressor := gzip.NewWriter(&buf)
		if _, err := compressor.Write(data); err != nil {
			return nil, err
		}
		if err := compressor.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionXZ:
		var buf bytes.Buffer
		compressor, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := compressor.Write(data); err != nil {
			return nil, err
		}
		if err := compressor.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionNone:
		return data, nil

	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}
