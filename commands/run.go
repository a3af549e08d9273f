package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"research-assistant/server/research"
)

func newRunCommand() *cobra.Command {
	var (
		topic       string
		feedback    string
		maxAnalysts int
		maxTurns    int
		parallelism int
		output      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full research workflow and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}

			cb := research.Callbacks{
				OnProgress: func(p int, msg string) {
					a.log.Info().Int("progress", p).Msg(msg)
				},
				OnAnalystsCreated: func(analysts []research.Analyst) {
					for _, an := range analysts {
						a.log.Info().
							Str("name", an.Name).
							Str("role", an.Role).
							Str("affiliation", an.Affiliation).
							Msg("analyst created")
					}
				},
				OnInterviewComplete: func(name, section string) {
					a.log.Info().Str("analyst", name).Msg("interview completed")
				},
				OnError: func(msg string) {
					a.log.Warn().Msg(msg)
				},
			}

			cfg := a.runConfig(topic, feedback, maxAnalysts, maxTurns, parallelism)
			results, err := a.workflow.Run(cmd.Context(), cfg, cb)
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(results.FinalReport), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				a.log.Info().Str("path", output).Msg("report written")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), results.FinalReport)
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "research topic")
	cmd.Flags().StringVar(&feedback, "feedback", "", "editorial feedback to steer analyst creation")
	cmd.Flags().IntVar(&maxAnalysts, "max-analysts", 0, "number of analyst personas (1-6)")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "interview turns per analyst (1-5)")
	cmd.Flags().IntVar(&parallelism, "parallel", 0, "max concurrent interviews")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}
