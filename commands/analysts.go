package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalystsCommand() *cobra.Command {
	var (
		topic       string
		feedback    string
		maxAnalysts int
	)

	cmd := &cobra.Command{
		Use:   "analysts",
		Short: "Generate analyst personas for a topic without running interviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}

			count := maxAnalysts
			if count <= 0 {
				count = a.cfg.MaxAnalysts
			}

			analysts, err := a.generator.Generate(cmd.Context(), topic, count, feedback)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, an := range analysts {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, an.Persona())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "research topic")
	cmd.Flags().StringVar(&feedback, "feedback", "", "editorial feedback to steer analyst creation")
	cmd.Flags().IntVar(&maxAnalysts, "max-analysts", 0, "number of analyst personas (1-6)")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}
