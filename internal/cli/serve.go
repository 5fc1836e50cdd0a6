package cli

import (
	"github.com/spf13/cobra"

	"github.com/foldview/foldview/internal/server"
	"github.com/foldview/foldview/pkg/store"
)

// serveCommand creates the serve command: run the HTTP API server.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve hosts a live graph behind an HTTP API: load documents, collapse and
expand containers, drive the layout lifecycle, and read the visible
projection. With a Mongo URI configured, documents can be saved and reopened
by name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			var docStore store.Store
			if cfg.Store.MongoURI != "" {
				docStore, err = store.NewMongoStore(cmd.Context(), cfg.Store.MongoURI, cfg.Store.Database)
				if err != nil {
					return err
				}
				defer docStore.Close(cmd.Context())
				c.Logger.Info("document store enabled", "database", cfg.Store.Database)
			} else {
				docStore = store.NewMemoryStore()
			}

			warnLimit := cfg.Validation.FootprintWarnLimit
			if warnLimit == 0 {
				warnLimit = -1 // explicit zero in config disables the warning
			}
			srv := server.New(server.Options{
				Logger:             c.Logger,
				Store:              docStore,
				Budget:             cfg.Collapse.Budget,
				Model:              cfg.CostModel(),
				FootprintWarnLimit: warnLimit,
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, \":8080\")")

	return cmd
}
