package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkeerthivasan/estateline/config"
	"github.com/rkeerthivasan/estateline/internal/knowledge"
	"github.com/rkeerthivasan/estateline/provider"
)

func indexCMD() *cobra.Command {
	var cfgPath string
	var idx = &cobra.Command{
		Use:   "index",
		Short: "Rebuild the vector index from the configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			kb, err := knowledge.Open(context.Background(), cfg.Knowledge, llm, true, nil)
			if err != nil {
				return err
			}
			fmt.Printf("index written to %s (%d entries, dimension %d)\n",
				cfg.Knowledge.IndexPath, kb.Index.Len(), kb.Index.Dimension)
			return nil
		},
	}
	idx.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return idx
}
