// Package cmd implements the photometa CLI's cobra command tree.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "photometa",
	Short: "Embed AI-generated title, description, keywords, and GPS into photo metadata",
	Long: `photometa analyzes photos with a vision AI backend and writes the
results back into the file's own metadata (EXIF/XMP/IPTC for JPEG/TIFF,
XMP for PNG/WebP, and a .xmp sidecar for RAW/HEIC/HEIF/AVIF), without
ever overwriting a field the file already carries unless told to.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	},
}

// Execute runs the command tree, setting the reported version.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "photometa.yaml", "path to the YAML configuration file")
	rootCmd.AddCommand(processCmd, viewCmd, batchCmd)
}
