package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// SetupCmd configures MCP for various AI clients.
type SetupCmd struct {
	Qwen     bool   `help:"Configure for Qwen CLI"`
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Local    bool   `help:"Create project-local configuration"`
	Global   bool   `help:"Create global configuration"`
	Format   string `help:"Output format (json|text)" enum:"json,text" default:"json"`
	FilePath string `help:"Custom directory for the local configuration"`
}

// clients in the order they are configured.
var clients = []string{"qwen", "claude", "cursor"}

// Run executes the setup command.
func (c *SetupCmd) Run(g *Globals) error {
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Format)
	}

	config, err := generateServerConfig(g)
	if err != nil {
		return err
	}

	selected := map[string]bool{"qwen": c.Qwen, "claude": c.Claude, "cursor": c.Cursor}
	if !c.Qwen && !c.Claude && !c.Cursor {
		return c.printConfig(g, config)
	}

	if !c.Local && !c.Global {
		c.Local = true
	}

	for _, client := range clients {
		if !selected[client] {
			continue
		}
		if err := c.setupClient(g, client, config); err != nil {
			return err
		}
	}
	return nil
}

func (c *SetupCmd) printConfig(g *Globals, config map[string]any) error {
	w := g.stdout()
	if c.Format == "json" {
		return writeJSON(w, config)
	}
	fmt.Fprintln(w, "# Add this to your MCP client configuration:")
	fmt.Fprintln(w)
	for key, value := range config {
		fmt.Fprintf(w, "%s: %s\n", key, toJSON(value))
	}
	return nil
}

func (c *SetupCmd) setupClient(g *Globals, client string, config map[string]any) error {
	w := g.stdout()
	name := strings.ToUpper(client[:1]) + client[1:]

	if c.Global {
		globalPath := getGlobalConfigPath(client)
		if err := writeConfig(globalPath, config, c.Format); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(w, "✓ Created global %s MCP config at %s\n", name, globalPath)
	}

	if c.Local {
		localPath := getLocalConfigPath(".", client)
		if c.FilePath != "" {
			localPath = filepath.Join(c.FilePath, "mcp.json")
		}
		if err := writeConfig(localPath, config, c.Format); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(w, "✓ Created local %s MCP config at %s\n", name, localPath)
	}
	return nil
}

// Configuration generators

// generateServerConfig returns an mcpServers entry that starts hyperview in
// watch mode on the resolved working directory.
func generateServerConfig(g *Globals) (map[string]any, error) {
	cfg, _, err := g.load()
	if err != nil {
		return nil, err
	}
	workingDir, err := filepath.Abs(cfg.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	args := []string{"serve", "--watch", "--working-dir", workingDir}
	if g.Config != "" {
		args = append(args, "--config", g.Config)
	}

	return map[string]any{
		"mcpServers": map[string]any{
			"hyperview": map[string]any{
				"command": "hyperview",
				"args":    args,
			},
		},
	}, nil
}

// Path helpers

func getLocalConfigPath(basePath, client string) string {
	return filepath.Join(basePath, getClientConfigDir(client), "mcp.json")
}

func getGlobalConfigPath(client string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}
	return filepath.Join(homeDir, getClientConfigDir(client), "global", "mcp.json")
}

func getClientConfigDir(client string) string {
	switch client {
	case "claude":
		return ".claude"
	case "cursor":
		return ".cursor"
	default:
		return ".qwen"
	}
}

// Config writers

func writeConfig(configPath string, config map[string]any, format string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	var content []byte
	if format == "json" {
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		content = append(data, '\n')
	} else {
		var sb strings.Builder
		sb.WriteString("# MCP configuration for hyperview\n")
		sb.WriteString("# Generated by hyperview setup\n\n")
		for key, value := range config {
			fmt.Fprintf(&sb, "%s: %s\n", key, toJSON(value))
		}
		content = []byte(sb.String())
	}

	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func toJSON(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}
