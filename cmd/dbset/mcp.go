package main

import (
	"github.com/spf13/cobra"

	"github.com/flemzord/dbset/internal/mcpserver"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose plan and status tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			eng := buildEngine(cfg, newLogger(cmd), nil)
			return mcpserver.New(eng, version).ServeStdio()
		},
	}
}
