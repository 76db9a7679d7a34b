package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/photometa/core/config"
	"github.com/ankit-chaubey/photometa/core/pipeline"
)

var flagIgnoreFile string

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Walk a directory and process every supported image in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]

		var ignorer *gitignore.GitIgnore
		if flagIgnoreFile != "" {
			var err error
			ignorer, err = gitignore.CompileIgnoreFile(flagIgnoreFile)
			if err != nil {
				return err
			}
		}

		paths, err := pipeline.CollectImages(dir, func(p string) bool {
			return ignorer != nil && ignorer.MatchesPath(p)
		})
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Println("no supported images found")
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opts := optionsFromConfig(cfg)
		reg := buildRegistry(cfg)

		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("processing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		)

		ctx := context.Background()
		workers := runtime.NumCPU()
		sem := make(chan struct{}, workers)
		results := make(chan struct {
			path string
			err  string
		}, len(paths))

		for _, p := range paths {
			sem <- struct{}{}
			go func(p string) {
				defer func() { <-sem }()
				o := pipeline.ProcessOne(ctx, p, reg, opts)
				bar.Add(1)
				results <- struct {
					path string
					err  string
				}{p, o.Error}
			}(p)
		}
		for range paths {
			r := <-results
			if r.err != "" {
				fmt.Fprintf(os.Stderr, "✗ %s: %s\n", r.path, r.err)
			}
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&flagIgnoreFile, "ignore-file", "", "path to a .gitignore-style pattern file")
	batchCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "preview decisions without writing any file")
	batchCmd.Flags().BoolVar(&flagNoBackup, "no-backup", false, "skip the .bak copy before an in-place write")
	batchCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "overwrite fields the file already carries (GPS is never overwritten)")
}
