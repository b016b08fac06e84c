package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/jobstore"
	"reelforge/internal/textutil"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage video jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			views, err := api.ListJobs(cmd.Context(), cfg, statuses...)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					strconv.FormatInt(view.ID, 10),
					textutil.Truncate(view.Topic, 48),
					renderStatus(view.Status, colorize),
					strconv.Itoa(view.Attempt),
					view.CreatedAt.Local().Format(time.DateTime),
				})
			}
			table := renderTable(
				[]string{"ID", "Topic", "Status", "Attempt", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(out, table)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine readable output")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			view, err := api.ShowJob(cmd.Context(), cfg, id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Job %d: %s\n", view.ID, view.Topic)
			fmt.Fprintf(out, "  Status:   %s\n", renderStatus(view.Status, colorize))
			fmt.Fprintf(out, "  Attempt:  %d\n", view.Attempt)
			if view.ProgressStage != "" {
				fmt.Fprintf(out, "  Stage:    %s (%s)\n", view.ProgressStage, view.ProgressMsg)
			}
			if view.VideoID != "" {
				fmt.Fprintf(out, "  Video:    https://youtu.be/%s\n", view.VideoID)
			}
			if view.VideoFile != "" {
				fmt.Fprintf(out, "  File:     %s\n", view.VideoFile)
			}
			if view.ErrorMessage != "" {
				fmt.Fprintf(out, "  Error:    %s\n", view.ErrorMessage)
			}
			fmt.Fprintf(out, "  Created:  %s\n", view.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "  Updated:  %s\n", view.UpdatedAt.Local().Format(time.DateTime))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine readable output")
	return cmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed jobs",
		Long:  "Requeue failed jobs. Without arguments every failed job is reset and republished.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid job id %q", arg)
				}
				ids = append(ids, id)
			}
			reset, err := api.RetryJobs(cmd.Context(), cfg, ids...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(reset) == 0 {
				fmt.Fprintln(out, "No failed jobs to retry")
				return nil
			}
			fmt.Fprintf(out, "Requeued %d job(s)\n", len(reset))
			return nil
		},
	}
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs",
		Long:  "Remove finished jobs. The default scope is completed, pending_upload, and failed rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var statuses []jobstore.Status
			switch {
			case clearAll && len(clearStatuses) > 0:
				return fmt.Errorf("specify either --all or --status, not both")
			case clearAll:
				statuses = jobstore.AllStatuses()
			default:
				var err error
				statuses, err = parseStatuses(clearStatuses)
				if err != nil {
					return err
				}
			}
			removed, err := api.ClearJobs(cmd.Context(), cfg, statuses...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d job(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Clear only the given statuses (repeatable)")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Clear every job regardless of status")
	return cmd
}

func parseStatuses(raw []string) ([]jobstore.Status, error) {
	var statuses []jobstore.Status
	for _, value := range raw {
		status, ok := jobstore.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
