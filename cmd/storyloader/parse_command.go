package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyloader/internal/ingest"
	"storyloader/internal/logging"
	"storyloader/internal/story"
)

type parseOutput struct {
	Source      string              `json:"source"`
	Format      string              `json:"format"`
	EpicLayout  bool                `json:"epic_layout"`
	Stories     []story.Story       `json:"stories"`
	Diagnostics []ingest.Diagnostic `json:"diagnostics,omitempty"`
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var flags parseFlags
	var epicKey string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse a story document and show the result without contacting the tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, source, err := parseInput(cmd, ctx, args[0], flags)
			if err != nil {
				return err
			}
			ctx.loggerValue().Debug("document parsed",
				logging.String("source", source),
				logging.String("format", result.Format.String()),
				logging.Int("stories", len(result.Stories)),
				logging.Int("diagnostics", len(result.Diagnostics)),
			)

			if jsonOutput {
				return writeJSON(cmd, parseOutput{
					Source:      source,
					Format:      result.Format.String(),
					EpicLayout:  result.EpicLayout,
					Stories:     result.Stories,
					Diagnostics: result.Diagnostics,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Source: %s\nFormat: %s\nEpic layout: %s\nStories: %d\n\n",
				source, result.Format, yesNo(result.EpicLayout), len(result.Stories))
			renderStories(out, result.Stories, story.GroupStories(result.Stories, epicKey), colorize)
			renderDiagnostics(cmd.ErrOrStderr(), result.Diagnostics, shouldColorize(cmd.ErrOrStderr()))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&epicKey, "epic", "", "Preview grouping under an existing epic key")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output parsed stories as JSON")
	return cmd
}
