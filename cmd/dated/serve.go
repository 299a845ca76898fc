package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/DatEd/internal/config"
	"github.com/koustreak/DatEd/internal/database"
	"github.com/koustreak/DatEd/internal/database/mysql"
	"github.com/koustreak/DatEd/internal/database/postgres"
	"github.com/koustreak/DatEd/internal/database/sqlite"
	"github.com/koustreak/DatEd/internal/editor"
	"github.com/koustreak/DatEd/internal/events"
	"github.com/koustreak/DatEd/internal/exporter"
	"github.com/koustreak/DatEd/internal/filestore"
	"github.com/koustreak/DatEd/internal/filestore/minio"
	"github.com/koustreak/DatEd/internal/logger"
	"github.com/koustreak/DatEd/internal/schema"
	"github.com/koustreak/DatEd/internal/server"
)

type cmdServe struct {
	flagConfig    string
	flagListen    string
	flagDSN       string
	flagLogLevel  string
	flagLogFormat string
}

func (c *cmdServe) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "serve"
	cmd.Short = "Start the editor HTTP server"
	cmd.RunE = c.Run

	cmd.Flags().StringVar(&c.flagConfig, "config", "", "Path to the YAML config file")
	cmd.Flags().StringVar(&c.flagListen, "listen", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&c.flagDSN, "dsn", "", "Database connection string (overrides config and DATABASE_URL)")
	cmd.Flags().StringVar(&c.flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&c.flagLogFormat, "log-format", "", "Log format: json, console")

	return cmd
}

func (c *cmdServe) Run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		return err
	}
	if c.flagListen != "" {
		cfg.Server.Addr = c.flagListen
	}
	if c.flagDSN != "" {
		cfg.Database.DSN = c.flagDSN
	}
	if c.flagLogLevel != "" {
		cfg.Log.Level = c.flagLogLevel
	}
	if c.flagLogFormat != "" {
		cfg.Log.Format = c.flagLogFormat
	}

	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.SeedDemo {
		if err := editor.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	var publisher events.Publisher
	if cfg.Events.Enabled {
		kp := events.NewKafkaPublisher(&events.Config{
			Brokers:     cfg.Events.Brokers,
			TopicPrefix: cfg.Events.TopicPrefix,
		})
		defer kp.Close()
		publisher = kp
		log.With().Str("topic_prefix", cfg.Events.TopicPrefix).Logger().Info("change events enabled")
	}

	var store filestore.Store
	if cfg.Export.Enabled {
		ms, err := minio.New(ctx, &filestore.Config{
			Endpoint:  cfg.Export.Endpoint,
			AccessKey: cfg.Export.AccessKey,
			SecretKey: cfg.Export.SecretKey,
			UseSSL:    cfg.Export.UseSSL,
			Region:    cfg.Export.Region,
			Bucket:    cfg.Export.Bucket,
		})
		if err != nil {
			return fmt.Errorf("connect object store: %w", err)
		}
		defer ms.Close()
		store = ms
		log.With().Str("endpoint", cfg.Export.Endpoint).Str("bucket", cfg.Export.Bucket).Logger().
			Info("export store enabled")
	}

	svc := editor.NewService(db, schema.NewInspector(db), publisher, log)
	exp := exporter.New(svc, store, cfg.Export.Bucket, log)

	srv, err := server.New(svc, exp, db, log)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.With().Str("addr", cfg.Server.Addr).Logger().Info("server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// openDatabase picks the driver from the DSN scheme and connects.
func openDatabase(ctx context.Context, cfg *config.Config) (database.DB, error) {
	dialect, dsn, err := database.ParseDSN(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	dbCfg := database.DefaultConfig(dsn)
	if cfg.Database.MaxConns > 0 {
		dbCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.QueryTimeout > 0 {
		dbCfg.QueryTimeout = cfg.Database.QueryTimeout
	}

	switch dialect {
	case database.DialectPostgres:
		return postgres.New(ctx, dbCfg)
	case database.DialectMySQL:
		return mysql.New(ctx, dbCfg)
	default:
		return sqlite.New(ctx, dbCfg)
	}
}
