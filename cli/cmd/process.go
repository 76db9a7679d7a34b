package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/photometa/core"
	"github.com/ankit-chaubey/photometa/core/config"
	"github.com/ankit-chaubey/photometa/core/pipeline"
)

var (
	flagDryRun    bool
	flagNoBackup  bool
	flagOverwrite bool
)

var processCmd = &cobra.Command{
	Use:   "process <path...>",
	Short: "Analyze and embed AI-generated metadata into one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opts := optionsFromConfig(cfg)
		reg := buildRegistry(cfg)

		outcomes := pipeline.ProcessAll(context.Background(), args, reg, opts, runtime.NumCPU())
		for i, o := range outcomes {
			reportOutcome(args[i], o)
		}
		return nil
	},
}

func optionsFromConfig(cfg config.Config) pipeline.Options {
	opts := pipeline.Options{
		Policy:          cfg.FieldPolicy,
		DryRun:          cfg.Output.DryRun,
		BackupOriginals: cfg.Output.BackupOriginals,
	}
	if flagDryRun {
		opts.DryRun = true
	}
	if flagNoBackup {
		opts.BackupOriginals = false
	}
	if flagOverwrite {
		opts.Policy.OverwriteExisting = true
	}
	return opts
}

func reportOutcome(path string, o core.WriteOutcome) {
	if o.Error != "" {
		fmt.Printf("✗ %s: %s\n", path, o.Error)
		return
	}

	var written []string
	if o.TitleWritten {
		written = append(written, "title")
	}
	if o.DescriptionWritten {
		written = append(written, "description")
	}
	if o.TagsWritten {
		written = append(written, "tags")
	}
	if o.SubjectWritten {
		written = append(written, "subject")
	}
	if o.GPSWritten {
		written = append(written, "gps")
	}

	if len(written) == 0 {
		fmt.Printf("• %s: nothing to write\n", path)
		return
	}

	dest := path
	if o.SidecarPath != "" {
		dest = o.SidecarPath
	}
	fmt.Printf("✓ %s (%s) -> %s [%s]\n", path, strings.Join(written, ", "), dest, o.AiServiceUsed)
	if len(o.SkippedFields) > 0 {
		fmt.Printf("  skipped: %s\n", strings.Join(o.SkippedFields, ", "))
	}
}

func init() {
	processCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "preview decisions without writing any file")
	processCmd.Flags().BoolVar(&flagNoBackup, "no-backup", false, "skip the .bak copy before an in-place write")
	processCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "overwrite fields the file already carries (GPS is never overwritten)")
}
