package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediaconv/internal/deps"
	"mediaconv/internal/notifications"
	"mediaconv/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check directories and external binaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			fmt.Fprintf(out, "Engine: %s\n", cfg.Conversion.Engine)

			var rows [][]string
			failed := false
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed = true
				}
				rows = append(rows, []string{result.Name, colorLabel(statusKindLabel(kind), kind, colorize), result.Detail})
			}

			space := preflight.CheckFreeSpace("Media root free space", cfg.Paths.RootDir, preflight.MinFreeBytes)
			spaceKind := statusOK
			if !space.Passed {
				spaceKind = statusWarn
			}
			rows = append(rows, []string{space.Name, colorLabel(statusKindLabel(spaceKind), spaceKind, colorize), space.Detail})

			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				detail := status.Path
				switch {
				case status.Available:
					if version, err := deps.Version(cmd.Context(), status.Path); err == nil {
						detail = version
					}
				case status.Optional:
					kind = statusWarn
					detail = status.Detail + " (optional: " + status.Description + ")"
				default:
					kind = statusError
					detail = status.Detail
					failed = true
				}
				rows = append(rows, []string{status.Name, colorLabel(statusKindLabel(kind), kind, colorize), detail})
			}

			journalDetail := "disabled"
			if cfg.Journal.Enabled {
				journalDetail = cfg.Journal.Path
			}
			rows = append(rows, []string{"Journal", colorLabel(statusKindLabel(statusInfo), statusInfo, colorize), journalDetail})
			rows = append(rows, []string{"Delete sources", colorLabel(statusKindLabel(statusInfo), statusInfo, colorize), yesNo(cfg.Conversion.DeleteSource)})

			if sendTest {
				kind, detail := statusOK, "test message sent"
				if cfg.Notifications.NtfyTopic == "" {
					kind, detail = statusWarn, "no ntfy_topic configured"
				} else if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					kind, detail = statusError, err.Error()
					failed = true
				}
				rows = append(rows, []string{"Notifications", colorLabel(statusKindLabel(kind), kind, colorize), detail})
			}

			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if failed {
				return errors.New("one or more required checks failed")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&sendTest, "notify", false, "Send a test notification to the configured ntfy topic")
	return cmd
}
