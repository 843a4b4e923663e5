package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags
	var convert convertFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "mediaconv",
		Short:         "Convert every .avi under a directory tree to .mp4",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, ctx, convert)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.root, "root", "", "Directory tree to convert (overrides paths.root_dir)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: error, warn, info, verbose or debug")
	rootCmd.Flags().BoolVar(&convert.dryRun, "dry-run", false, "List the conversions that would run without touching any file")
	rootCmd.Flags().IntVar(&convert.concurrency, "concurrency", 0, "Maximum simultaneous conversions (overrides conversion.concurrency)")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
