package compress

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
)

// HuffmanCompressor encodes strings with bit-packed prefix codes built
// from the letter frequencies of the archive's string set.
//
// The writer side builds the code table in BuildAndStore and serializes
// it as the codec-private extra region: one 'd'-marked entry per letter
// holding the significant bytes of its prefix code. The reader side
// reconstructs the code tree from that region via ReadExtra.
type HuffmanCompressor struct {
	table   [256]*huffCode
	entries []huffCode
	root    *decodeNode
}

var _ Compressor = (*HuffmanCompressor)(nil)

// NewHuffmanCompressor creates an empty Huffman codec. The code table
// exists only after BuildAndStore (writer) or ReadExtra (reader).
func NewHuffmanCompressor() *HuffmanCompressor {
	return &HuffmanCompressor{}
}

func (c *HuffmanCompressor) Type() format.CompressionType {
	return format.CompressionHuffman
}

// BuildAndStore counts byte frequencies over all strings, builds the
// prefix code table and serializes the dictionary into mf.
func (c *HuffmanCompressor) BuildAndStore(mf *memory.File, strings []string) error {
	var freqs [256]uint64
	for _, s := range strings {
		for i := 0; i < len(s); i++ {
			freqs[s[i]]++
		}
	}

	c.entries = buildCodeTable(&freqs)
	c.table = [256]*huffCode{}
	for i := range c.entries {
		c.table[c.entries[i].letter] = &c.entries[i]
	}

	return c.serializeDict(mf)
}

// serializeDict writes one dictionary entry per letter: marker, letter,
// the number of significant code bytes, then the code bits themselves
// starting at the first set bit of the first block.
func (c *HuffmanCompressor) serializeDict(mf *memory.File) error {
	for i := range c.entries {
		entry := &c.entries[i]
		if err := mf.Write([]byte{format.MarkerHuffmanDictEntry, entry.letter}); err != nil {
			return err
		}

		metaOff := mf.Tell()
		if err := mf.Skip(1); err != nil {
			return err
		}

		if err := mf.BeginBitMode(); err != nil {
			return err
		}
		if err := writeCodeBits(mf, entry.blocks); err != nil {
			return err
		}
		nbytes, err := mf.EndBitMode()
		if err != nil {
			return err
		}

		continueOff := mf.Tell()
		if err := mf.Seek(metaOff); err != nil {
			return err
		}
		if err := mf.WriteByte(uint8(nbytes)); err != nil {
			return err
		}
		if err := mf.Seek(continueOff); err != nil {
			return err
		}
	}

	return nil
}

// writeCodeBits emits a prefix code: the zero-bit prefix of the first
// block is skipped up to its first set bit, all following bits are
// emitted most-significant-first.
func writeCodeBits(mf *memory.File, blocks []uint32) error {
	firstBitFound := false
	for bi, block := range blocks {
		for i := 31; i >= 0; i-- {
			bit := block&(1<<uint(i)) != 0
			if bi == 0 && !firstBitFound {
				if !bit {
					continue
				}
				firstBitFound = true
			}
			if err := mf.WriteBit(bit); err != nil {
				return err
			}
		}
	}

	return nil
}

// EncodeString writes one string's payload: a reserved uint32 receiving
// the encoded byte count, then the bit-packed concatenation of the
// per-letter codes.
func (c *HuffmanCompressor) EncodeString(mf *memory.File, s string) error {
	sizeOff := mf.Tell()
	if err := mf.Skip(4); err != nil {
		return err
	}

	if err := mf.BeginBitMode(); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		entry := c.table[s[i]]
		if entry == nil {
			return fmt.Errorf("letter 0x%02x: %w", s[i], errs.ErrHuffman)
		}
		if len(entry.blocks) == 0 {
			if err := mf.WriteBit(false); err != nil {
				return err
			}
			continue
		}
		if err := writeCodeBits(mf, entry.blocks); err != nil {
			return err
		}
	}
	nbytes, err := mf.EndBitMode()
	if err != nil {
		return err
	}

	continueOff := mf.Tell()
	if err := mf.Seek(sizeOff); err != nil {
		return err
	}
	if err := mf.WriteUint32(uint32(nbytes)); err != nil {
		return err
	}

	return mf.Seek(continueOff)
}

// DecodeString reads one payload and walks the reconstructed code tree
// bit by bit until strLen letters are produced.
func (c *HuffmanCompressor) DecodeString(r io.Reader, strLen uint32) ([]byte, error) {
	if c.root == nil {
		return nil, fmt.Errorf("huffman dictionary not loaded: %w", errs.ErrIllegalImpl)
	}

	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read huffman payload size: %w", err)
	}
	nbytes := binary.LittleEndian.Uint32(prefix[:])
	payload := make([]byte, nbytes)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read huffman payload: %w", err)
	}

	out := make([]byte, 0, strLen)
	bitPos := 0
	maxBits := len(payload) * 8
	for uint32(len(out)) < strLen {
		node := c.root
		for !node.leaf {
			if bitPos >= maxBits {
				return nil, fmt.Errorf("huffman payload exhausted after %d of %d letters: %w",
					len(out), strLen, errs.ErrCorrupted)
			}
			bit := (payload[bitPos/8] >> (7 - uint(bitPos%8))) & 1
			bitPos++
			node = node.children[bit]
			if node == nil {
				return nil, fmt.Errorf("huffman code walk hit dead branch: %w", errs.ErrCorrupted)
			}
		}
		out = append(out, node.letter)
	}

	return out, nil
}

// ReadExtra deserializes the dictionary region and rebuilds the code
// tree for decoding.
func (c *HuffmanCompressor) ReadExtra(data []byte) error {
	entries, err := parseDictEntries(data)
	if err != nil {
		return err
	}
	c.root = buildDecodeTree(entries)

	return nil
}

func parseDictEntries(data []byte) ([]dictEntry, error) {
	var entries []dictEntry
	pos := 0
	for pos < len(data) && data[pos] == format.MarkerHuffmanDictEntry {
		if pos+3 > len(data) {
			return nil, fmt.Errorf("truncated huffman dictionary entry: %w", errs.ErrCorrupted)
		}
		letter := data[pos+1]
		nbytes := int(data[pos+2])
		pos += 3
		if pos+nbytes > len(data) {
			return nil, fmt.Errorf("truncated huffman prefix code: %w", errs.ErrCorrupted)
		}
		entries = append(entries, dictEntry{letter: letter, code: data[pos : pos+nbytes]})
		pos += nbytes
	}

	return entries, nil
}

// DumpDict renders the serialized dictionary at the cursor of mf.
func (c *HuffmanCompressor) DumpDict(w io.Writer, mf *memory.File) error {
	for {
		marker, err := mf.PeekByte()
		if err != nil || marker != format.MarkerHuffmanDictEntry {
			return nil
		}
		offset := mf.Tell()
		header, err := mf.Read(3)
		if err != nil {
			return err
		}
		letter, nbytes := header[1], int(header[2])
		code, err := mf.Read(nbytes)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "0x%04x [marker: %c] [letter: '%c'] [nbytes_prefix: %d] [code:",
			offset, format.MarkerHuffmanDictEntry, letter, nbytes)
		for i, b := range code {
			sep := " "
			if i > 0 {
				sep = ", "
			}
			fmt.Fprintf(w, "%s0b%08b", sep, b)
		}
		if nbytes == 0 {
			fmt.Fprintf(w, " 0b00000000")
		}
		fmt.Fprintln(w, "]")
	}
}
