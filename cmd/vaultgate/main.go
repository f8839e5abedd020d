// Package main implements the whitelisted MCP gateway for Obsidian
// vaults reached through the Local REST API plugin.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/quillmar/vaultgate/internal/config"
	"github.com/quillmar/vaultgate/internal/logging"
	"github.com/quillmar/vaultgate/internal/obsidian"
	"github.com/quillmar/vaultgate/internal/vault"
	"github.com/quillmar/vaultgate/internal/whitelist"
)

var vaultService *vault.Service

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:   "vaultgate",
		Short: "Read-only MCP gateway for Obsidian vaults",
		Long: `vaultgate is a Model Context Protocol (MCP) server that exposes an
Obsidian vault to AI harnesses through the Obsidian Local REST API
plugin. Access is read-only and restricted to paths matching the
configured whitelist; everything else in the vault stays invisible.`,
		Example: `OBSIDIAN_API_KEY=... OBSIDIAN_WHITELIST="Work/,**/*.md" vaultgate`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")

	if err := fang.Execute(
		context.Background(),
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	wl := whitelist.New(cfg.Whitelist)
	client := obsidian.New(obsidian.Options{
		Protocol:  cfg.Protocol,
		Host:      cfg.Host,
		Port:      cfg.Port,
		APIKey:    cfg.APIKey,
		VerifySSL: cfg.VerifySSL,
		Timeout:   30 * time.Second,
	})
	vaultService = vault.New(client, wl)

	if wl.Unrestricted() {
		logging.Info("whitelist empty, all vault paths readable")
	} else {
		logging.Info("whitelist active", "patterns", wl.Patterns())
	}
	logging.Info("connecting to obsidian", "url", client.BaseURL())

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vaultgate",
		Version: version,
	}, nil)

	registerTools(server)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}
	return nil
}
