package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/docsection/internal/chunker"
	"github.com/spf13/cobra"
)

func newChunkCmd(f *flags) *cobra.Command {
	cfg := chunker.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "chunk [file|-]",
		Short: "Sectionize a document and print its breadcrumbed chunks as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ChunkSize <= 0 {
				return fmt.Errorf("--chunk-size must be positive, got %d", cfg.ChunkSize)
			}
			if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
				return fmt.Errorf("--overlap must be between 0 and --chunk-size (%d), got %d", cfg.ChunkSize, cfg.ChunkOverlap)
			}
			tree, _, err := f.load(cmd, args)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(chunker.ChunkTree(tree, cfg))
		},
	}
	cmd.Flags().IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Target chunk size in tokens")
	cmd.Flags().IntVar(&cfg.ChunkOverlap, "overlap", cfg.ChunkOverlap, "Token overlap between split chunks")
	cmd.Flags().IntVar(&cfg.MinChunk, "min-chunk", cfg.MinChunk, "Drop chunks smaller than this many tokens")
	return cmd
}
