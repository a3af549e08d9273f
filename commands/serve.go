package commands

import (
	"github.com/spf13/cobra"

	"research-assistant/server/api/server"
	"research-assistant/server/events"
	"research-assistant/server/store"
)

func newServeCommand() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the research API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}

			var runStore store.RunStore
			if a.cfg.PostgresDSN != "" {
				pg, err := store.NewPostgresStore(a.cfg.PostgresDSN, a.log)
				if err != nil {
					return err
				}
				runStore = pg
				a.log.Info().Msg("using postgres run store")
			} else {
				runStore = store.NewMemoryStore()
				a.log.Info().Msg("using in-memory run store")
			}

			if address == "" {
				address = a.cfg.ServerAddress
			}

			srv := server.New(
				&server.Config{Address: address},
				a.workflow,
				a.generator,
				runStore,
				events.NewBroker(),
				a.log,
			)
			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (defaults to config)")
	return cmd
}
