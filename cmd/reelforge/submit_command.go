package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		niche         string
		language      string
		voice         string
		lengthSeconds int
		publish       bool
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "submit <topic>",
		Short: "Queue a new video job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := api.SubmitJob(cmd.Context(), api.SubmitJobRequest{
				Config:        cfg,
				Topic:         args[0],
				Niche:         niche,
				Language:      language,
				Voice:         voice,
				LengthSeconds: lengthSeconds,
				Publish:       publish,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d (%s)\n", result.JobID, result.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&niche, "niche", "", "Content niche hint for the script model")
	cmd.Flags().StringVar(&language, "language", "", "Narration language (default English)")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice name or alias")
	cmd.Flags().IntVar(&lengthSeconds, "length", 0, "Target video length in seconds")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish the upload instead of leaving it private")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine readable output")
	return cmd
}
