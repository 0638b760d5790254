package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fkoehler/buildorder/internal/server"
	"github.com/fkoehler/buildorder/pkg/config"
	"github.com/fkoehler/buildorder/pkg/history"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr        string // listen address, overrides config
	data        string // explicit dependency data file
	branchGroup string // config branch group selecting the data file
	noCache     bool   // disable the result cache
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution API over HTTP",
		Long: `Serve the resolution API over HTTP.

The server loads the dependency data file once at startup and answers
resolution, graph and component queries against that snapshot. Cache
backend, listen address and resolution history come from the config
file; flags override the address and data file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.data, "data", "", "dependency data file (overrides config)")
	cmd.Flags().StringVarP(&opts.branchGroup, "branch-group", "g", "", "branch group selecting the data file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	dataFile, err := c.dataFile(opts.data, opts.branchGroup)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	db, dataHash, err := runner.Load(dataFile)
	if err != nil {
		return err
	}

	store, err := historyStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	printInfo("Serving %d components on %s", db.Len(), StyleLink.Render("http://"+hostAddr(addr)))

	srv := server.New(server.Config{Addr: addr, DataFile: dataFile}, db, dataHash, runner, store, logger)
	return srv.Run(ctx)
}

// historyStore builds the resolution history store; disabled history
// records nothing.
func historyStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (history.Store, error) {
	if !cfg.Server.History.Enabled {
		return history.NewNopStore(), nil
	}
	store, err := history.NewMongoStore(ctx, history.MongoOptions{
		URI:        cfg.Server.History.URI,
		Database:   cfg.Server.History.Database,
		Collection: cfg.Server.History.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("connect history store: %w", err)
	}
	logger.Info("resolution history enabled", "database", cfg.Server.History.Database, "collection", cfg.Server.History.Collection)
	return store, nil
}

// hostAddr rewrites a bare ":port" listen address into a browsable host.
func hostAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
