package compress

import (
	"fmt"
	"io"

	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
)

// NoneCompressor stores strings as raw bytes. It carries no extra region
// and no per-archive state.
type NoneCompressor struct{}

var _ Compressor = (*NoneCompressor)(nil)

func (c *NoneCompressor) Type() format.CompressionType {
	return format.CompressionNone
}

func (c *NoneCompressor) BuildAndStore(_ *memory.File, _ []string) error {
	return nil
}

// EncodeString writes the raw string bytes; the entry header's string
// length delimits the payload.
func (c *NoneCompressor) EncodeString(mf *memory.File, s string) error {
	return mf.Write([]byte(s))
}

func (c *NoneCompressor) DecodeString(r io.Reader, strLen uint32) ([]byte, error) {
	out := make([]byte, strLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("read %d raw string bytes: %w", strLen, err)
	}

	return out, nil
}

func (c *NoneCompressor) ReadExtra(_ []byte) error {
	return nil
}

func (c *NoneCompressor) DumpDict(w io.Writer, _ *memory.File) error {
	_, err := fmt.Fprintln(w, "[no dictionary]")

	return err
}
