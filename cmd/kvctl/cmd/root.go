// Package cmd implements the kvctl CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gobeyondidentity/scopedkv/pkg/credential"
	"github.com/gobeyondidentity/scopedkv/pkg/kvstore"
	"github.com/gobeyondidentity/scopedkv/pkg/snapshot"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// Global flags
	outputFormat string
	dbPath       string
	configPath   string
	verbose      bool

	// Engine state shared by the commands, populated by PersistentPreRunE.
	state   *snapshot.Store
	manager *credential.Manager
	store   *kvstore.Store
)

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "kvctl",
	Short: "Identity-scoped key-value store CLI",
	Long: `kvctl manages an identity-scoped key-value store.

Identities are path-like tokens resolved against a configurable policy.
Each registered identity gets a private namespace plus access to the
shared read-write store and the admin-curated read-only store.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsEngine(cmd) {
			return nil
		}
		return openEngine()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if state == nil {
			return
		}
		if store != nil {
			if err := state.Save(store.Export()); err != nil {
				fmt.Fprintf(os.Stderr, "%s failed to persist state: %v\n", errFmt("error:"), err)
			}
		}
		state.Close()
	},
}

// skipsEngine reports whether cmd runs without the store engine. Manifest
// commands only need key material, never the database.
func skipsEngine(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "completion", "help":
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "manifest" {
			return true
		}
	}
	return false
}

// openEngine builds the manager and store from the policy config, then
// replays the persisted snapshot into them.
func openEngine() error {
	cfg := credential.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = credential.LoadConfig(configPath)
		if err != nil {
			return err
		}
	} else {
		// Without a policy file every identity falls under "/" and resolves
		// to the read-only default.
		cfg.Resolver.BasePaths = []string{"/"}
	}

	logOutput := io.Discard
	if verbose {
		logOutput = os.Stderr
	}
	cfg.Logger = slog.New(slog.NewTextHandler(logOutput, nil))

	path := dbPath
	if path == "" {
		path = defaultDBPath()
	}
	var err error
	state, err = snapshot.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	cfg.Audit = state

	manager, err = credential.NewManager(cfg)
	if err != nil {
		state.Close()
		return err
	}
	store, err = kvstore.New(kvstore.Config{Manager: manager, Logger: cfg.Logger})
	if err != nil {
		state.Close()
		return err
	}

	snap, err := state.Load()
	if err != nil {
		state.Close()
		return err
	}
	if err := store.Restore(snap); err != nil {
		state.Close()
		return fmt.Errorf("persisted state conflicts with the policy config: %w", err)
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "scopedkv.db"
	}
	return filepath.Join(home, ".local", "share", "kvctl", "scopedkv.db")
}

var completionCmd = &cobra.Command{
	Use:       "completion [bash|zsh|fish|powershell]",
	Short:     "Generate shell completion scripts",
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.local/share/kvctl/scopedkv.db)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Access policy YAML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine decisions to stderr")
	rootCmd.AddCommand(completionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// formatOutput handles output formatting based on the --output flag.
func formatOutput(data interface{}) error {
	switch outputFormat {
	case "json":
		return outputJSON(data)
	case "yaml":
		return outputYAML(data)
	default:
		// Table format is handled by each command
		return nil
	}
}

func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func outputYAML(data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
