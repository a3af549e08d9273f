// Package commands implements the research-assistant CLI.
package commands

import "github.com/spf13/cobra"

var cfgFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "research-assistant",
		Short: "Multi-agent research assistant",
		Long: `Research assistant that generates analyst personas, interviews
experts grounded in web search, and compiles the findings into a
cited markdown report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	root.AddCommand(newRunCommand())
	root.AddCommand(newAnalystsCommand())
	root.AddCommand(newServeCommand())
	return root
}

// Execute runs the CLI.
func Execute() error {
	return newRootCommand().Execute()
}
