package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/internal/api"
	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/internal/server"
	"github.com/muse-dev/muse-market/internal/vault"
	"github.com/muse-dev/muse-market/pkg/codec"
	"github.com/muse-dev/muse-market/pkg/sdk"
	"github.com/muse-dev/muse-market/pkg/store"
)

type config struct {
	DataDir    string `env:"MUSE_DATA_DIR" envDefault:"./data"`
	TCPPort    string `env:"MUSE_TCP_PORT" envDefault:"7101"`
	HTTPPort   string `env:"MUSE_HTTP_PORT" envDefault:"7102"`
	DisableTLS bool   `env:"MUSE_DISABLE_TLS"`
	Store      string `env:"MUSE_STORE" envDefault:"file"`
	SQLitePath string `env:"MUSE_SQLITE_PATH" envDefault:"./data/market.db"`
	Treasury   string `env:"MUSE_TREASURY,required"`
	MemoKey    string `env:"MUSE_MEMO_KEY"`
	// MigrateFrom points at a legacy file-backend data directory whose
	// records should be copied into the sqlite backend on startup.
	MigrateFrom string `env:"MUSE_MIGRATE_FROM"`
}

func main() {
	fmt.Println("Starting Muse Market Daemon...")

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	treasury, err := codec.ParseAddress(cfg.Treasury)
	if err != nil || treasury.IsZero() {
		logger.Fatal("MUSE_TREASURY must be a non-zero hex address", zap.Error(err))
	}

	mcfg := market.Config{Treasury: treasury}
	if cfg.MemoKey != "" {
		key, err := vault.ParseKey(cfg.MemoKey)
		if err != nil {
			logger.Fatal("Invalid MUSE_MEMO_KEY", zap.Error(err))
		}
		mcfg.MemoKey = key
	}

	// Pick the storage backend. The file backend keeps everything in
	// memory and flushes kind snapshots to disk; sqlite trades that for
	// a single database file.
	var st store.RecordStore
	switch cfg.Store {
	case "sqlite":
		st, err = store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to open sqlite store", zap.Error(err))
		}
		logger.Info("Storage backend ready", zap.String("backend", "sqlite"), zap.String("path", cfg.SQLitePath))
		if cfg.MigrateFrom != "" {
			persister, err := store.NewPersistence(cfg.MigrateFrom)
			if err != nil {
				logger.Fatal("Failed to open migration source", zap.Error(err))
			}
			records, err := persister.LoadAll()
			if err != nil {
				logger.Fatal("Failed to load migration source", zap.Error(err))
			}
			src := store.NewMemStore(records, nil)
			if err := store.Migrate(src, st); err != nil {
				logger.Fatal("Migration failed", zap.Error(err))
			}
			logger.Info("Migrated legacy data", zap.String("from", cfg.MigrateFrom))
		}
	case "file":
		persister, err := store.NewPersistence(cfg.DataDir)
		if err != nil {
			logger.Fatal("Failed to initialize persistence", zap.Error(err))
		}
		records, err := persister.LoadAll()
		if err != nil {
			logger.Warn("Could not load existing data", zap.Error(err))
		}
		st = store.NewMemStore(records, persister)
		logger.Info("Storage backend ready", zap.String("backend", "file"), zap.String("dir", cfg.DataDir))
	default:
		logger.Fatal("Unknown MUSE_STORE backend", zap.String("backend", cfg.Store))
	}

	rounds := market.WallClock(sdk.Genesis, sdk.RoundInterval)
	m := market.New(st, rounds, mcfg, logger)

	router := server.NewRouter(m)

	if cfg.DisableTLS {
		logger.Warn("TLS encryption disabled (MUSE_DISABLE_TLS=true)")
	} else {
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			logger.Fatal("Failed to generate TLS certificate", zap.Error(err))
		}
		router.SetCertificate(cert)
		logger.Info("TLS encryption enabled")
	}

	h := &api.Handler{Market: m, Log: logger}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.RequestLogger(logger))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Muse-Caller, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h.Routes(r)

	go func() {
		logger.Info("HTTP API listening", zap.String("port", cfg.HTTPPort))
		if err := r.Run(":" + cfg.HTTPPort); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, finalizing disk writes")
		if err := st.Close(); err != nil {
			logger.Error("Storage close failed", zap.Error(err))
		}
		logger.Info("Persistence complete, exiting")
		os.Exit(0)
	}()

	logger.Info("Settlement engine listening", zap.String("port", cfg.TCPPort))
	if err := router.Listen(cfg.TCPPort); err != nil {
		select {
		case <-sigChan:
		default:
			logger.Fatal("TCP server failed", zap.Error(err))
		}
	}
}
