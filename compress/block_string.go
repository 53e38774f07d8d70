package compress

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
)

// blockCompressor adapts a block Codec (Zstd, LZ4, S2) to the string
// table codec contract. Each entry payload is framed as
// {nbytes:u32, block[nbytes]} so the reader can decode a single entry
// without scanning, mirroring the Huffman payload shape.
type blockCompressor struct {
	ctype format.CompressionType
	codec Codec
}

var _ Compressor = (*blockCompressor)(nil)

func newBlockCompressor(ctype format.CompressionType, codec Codec) *blockCompressor {
	return &blockCompressor{ctype: ctype, codec: codec}
}

func (c *blockCompressor) Type() format.CompressionType {
	return c.ctype
}

func (c *blockCompressor) BuildAndStore(_ *memory.File, _ []string) error {
	return nil
}

func (c *blockCompressor) EncodeString(mf *memory.File, s string) error {
	block, err := c.codec.Compress([]byte(s))
	if err != nil {
		return fmt.Errorf("%s encode: %w", c.ctype, err)
	}
	if err := mf.WriteUint32(uint32(len(block))); err != nil {
		return err
	}

	return mf.Write(block)
}

func (c *blockCompressor) DecodeString(r io.Reader, strLen uint32) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read %s payload size: %w", c.ctype, err)
	}
	nbytes := binary.LittleEndian.Uint32(prefix[:])
	block := make([]byte, nbytes)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, fmt.Errorf("read %s payload: %w", c.ctype, err)
	}

	out, err := c.codec.Decompress(block)
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", c.ctype, err)
	}
	if uint32(len(out)) != strLen {
		return nil, fmt.Errorf("%s decode produced %d bytes, want %d: %w",
			c.ctype, len(out), strLen, errs.ErrDecompressFailed)
	}

	return out, nil
}

func (c *blockCompressor) ReadExtra(_ []byte) error {
	return nil
}

func (c *blockCompressor) DumpDict(w io.Writer, _ *memory.File) error {
	_, err := fmt.Fprintf(w, "[%s block codec, no dictionary]\n", c.ctype)

	return err
}
