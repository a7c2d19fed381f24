package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-memey/internal/config"
	"github.com/teslashibe/go-memey/pkg/assets"
	"github.com/teslashibe/go-memey/pkg/emotion"
)

func newAssetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List the memes and sounds found for each emotion",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			lib, err := assets.Load(cfg.Assets.ImagesDir, cfg.Assets.SoundsDir)
			if err != nil {
				return fmt.Errorf("load assets: %w", err)
			}
			printAssets(cmd.OutOrStdout(), cfg, lib)
			return nil
		},
	}
}

func printAssets(w io.Writer, cfg *config.Config, lib *assets.Library) {
	fmt.Fprintf(w, "Images: %s\n", cfg.Assets.ImagesDir)
	fmt.Fprintf(w, "Sounds: %s\n\n", cfg.Assets.SoundsDir)

	for _, e := range emotion.All() {
		entry := lib.Entry(e)
		sound := entry.Sound
		if sound == "" {
			sound = "-"
		}
		fmt.Fprintf(w, "  %-10s %3d images  sound: %s\n", e, len(entry.Images), sound)
	}

	fmt.Fprintf(w, "\n%d images, %d sounds\n", lib.ImageCount(), lib.SoundCount())
}
