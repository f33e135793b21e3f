package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/iestagram/cli/internal/config"
	"github.com/satishbabariya/iestagram/cli/internal/ui"
	"github.com/satishbabariya/iestagram/query/memdb"
	"github.com/satishbabariya/iestagram/runtime/client"
	"github.com/satishbabariya/iestagram/server"
	"github.com/satishbabariya/iestagram/storage"
)

var serveInMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Long: `Run the IEstagram API server against the configured database, or
against a transient in-memory store with --mem.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := openClient(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		files := storage.New(afero.NewOsFs(), cfg.UploadDir, cfg.UploadBaseURL)
		srv := server.New(db, files, logger)

		ui.PrintSuccess("listening on %s", cfg.ListenAddr)
		return http.ListenAndServe(cfg.ListenAddr, srv.Handler())
	},
}

func openClient(cfg *config.Config) (*client.Client, error) {
	if serveInMemory {
		ui.PrintWarning("using in-memory store; data will not survive a restart")
		return client.NewMem(memdb.NewStore()), nil
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set (or pass --mem)")
	}
	return client.New(cfg.Provider, cfg.DatabaseURL)
}

func init() {
	serveCmd.Flags().BoolVar(&serveInMemory, "mem", false, "use the in-memory backend")
	rootCmd.AddCommand(serveCmd)
}
