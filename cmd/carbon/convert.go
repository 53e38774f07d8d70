package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaksonlabs/carbon/archive"
	"github.com/jaksonlabs/carbon/format"
)

var convertCompressor string

var compressorNames = map[string]format.CompressionType{
	"none":    format.CompressionNone,
	"huffman": format.CompressionHuffman,
	"zstd":    format.CompressionZstd,
	"lz4":     format.CompressionLZ4,
	"s2":      format.CompressionS2,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.json> <output.carbon>",
	Short: "Convert a JSON document into a carbon archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		compression, ok := compressorNames[convertCompressor]
		if !ok {
			return fmt.Errorf("unknown compressor %q (none, huffman, zstd, lz4, s2)", convertCompressor)
		}

		logger, err := buildLogger()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		block, err := archive.FromJSON(data,
			archive.WithCompressor(compression),
			archive.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		if err := archive.WriteFile(args[1], block); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, %s string table)\n",
			args[1], block.Size(), compression)

		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertCompressor, "compressor", "c", "none",
		"string table codec: none, huffman, zstd, lz4, s2")
}
