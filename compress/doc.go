// Package compress implements the pluggable string table codec framework
// of the carbon archive format.
//
// A Compressor governs how the strings of an archive's embedded
// dictionary are encoded and decoded: None stores raw bytes, Huffman
// builds bit-packed prefix codes from letter frequencies, and the block
// codecs (Zstd, LZ4, S2) compress each entry as a length-framed block.
// Each codec owns one stable flag bit in the string table header; new
// variants are added only by allocating a new bit.
package compress
