package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"taskflow/internal/recordapi"
	"taskflow/internal/repository"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the record service over HTTP",
	Long: `Run the JSON record service that the remote backend talks to. Records are
kept in the SQLite database at DATABASE_URL. When JWT_SECRET is set every
request needs a bearer token (see 'taskflow token').`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}

		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer repository.Close(db)

		api := recordapi.NewServer(repository.NewTaskRepository(db), repository.NewCategoryRepository(db))
		srv := &http.Server{
			Addr: cfg.ListenAddr,
			Handler: api.Handler(recordapi.Options{
				JWTSecret:      []byte(cfg.JWTSecret),
				AllowedOrigins: cfg.CORSOrigins,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cmd.Context()
		errCh := make(chan error, 1)
		go func() {
			log.Printf("[info] record service listening on %s", cfg.ListenAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Println("[info] record service stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default LISTEN_ADDR or :8080)")
}
