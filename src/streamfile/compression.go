package streamfile

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/klauspost/compress/gzip"
)

// maxDecompressedSize bounds the inflated size of one stream file.
const maxDecompressedSize = 512 << 20

// Decompress inflates data when name carries the .gz suffix, otherwise it
// returns data unchanged. Hashes are always computed over inflated bytes.
func Decompress(name string, data []byte) ([]byte, error) {
	fn, err := ParseFilename(name)
	if err != nil || !fn.Compressed {
		if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
			return data, nil
		}
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	defer zr.Close()

	out, err := ioutil.ReadAll(&limitedReader{r: zr, n: maxDecompressedSize})
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return out, nil
}

// Compress gzips data. It is used by fixtures and the signing tool.
func Compress(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, fmt.Errorf("decompressed size exceeds %d bytes", int64(maxDecompressedSize))
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err
}
