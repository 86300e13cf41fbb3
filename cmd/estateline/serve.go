package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/rkeerthivasan/estateline/config"
	"github.com/rkeerthivasan/estateline/internal/knowledge"
	"github.com/rkeerthivasan/estateline/internal/server"
	"github.com/rkeerthivasan/estateline/internal/session"
	"github.com/rkeerthivasan/estateline/internal/store"
	"github.com/rkeerthivasan/estateline/internal/turn"
	"github.com/rkeerthivasan/estateline/provider"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			logger := log.New(log.Writer(), "[SERVE] ", log.LstdFlags)

			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}

			// index build/load happens before any query traffic is served
			kb, err := knowledge.Open(ctx, cfg.Knowledge, llm, false, nil)
			if err != nil {
				return err
			}
			engine := knowledge.NewEngine(kb.Searcher, llm, kb.Profile, cfg.General.Brand, cfg.Knowledge.TopK, nil)

			sessions, err := session.NewStore(cfg.Sessions, cfg.Storage.Redis)
			if err != nil {
				return err
			}

			var audit *store.Store
			if dsn, err := cfg.Storage.Postgres.DSN(); err == nil {
				audit, err = store.NewWithDSN(ctx, dsn)
				if err != nil {
					return err
				}
				defer audit.Close()
			} else {
				logger.Printf("audit log disabled: %v", err)
			}

			orch := turn.NewOrchestrator(engine, llm, sessions, audit, turn.Options{
				Brand:             cfg.General.Brand,
				RetrievalTimeout:  cfg.Dialogue.RetrievalTimeout,
				GenerationTimeout: cfg.Dialogue.GenerationTimeout,
				MaxInflightCalls:  cfg.Dialogue.MaxInflightCalls,
			}, nil)

			return server.New(orch).Start(cfg.Server.Address)
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return serve
}
