package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/controller"
	"github.com/justin7251/ai-code-fixer/src/service/ai"
	"github.com/justin7251/ai-code-fixer/src/service/github"
	"github.com/justin7251/ai-code-fixer/src/service/rules"
	"github.com/justin7251/ai-code-fixer/src/store"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// Handler handles CLI commands
type Handler struct {
	cfg        *config.Config
	configPath string
	rootCmd    *cobra.Command
}

// New creates a new CLI handler
func New() *Handler {
	h := &Handler{}
	h.setupCommands()
	return h
}

func (h *Handler) setupCommands() {
	h.rootCmd = &cobra.Command{
		Use:   "ai-code-fixer",
		Short: "Repository scanning and AI fix agent",
		Long:  "Scans GitHub repositories with a rule-based issue detector and applies AI-generated fixes",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return h.loadConfig()
		},
	}

	// Global flags
	h.rootCmd.PersistentFlags().StringVarP(&h.configPath, "config", "c", "",
		"Path to configuration file")

	// Add subcommands
	h.rootCmd.AddCommand(h.analyzeCmd())
	h.rootCmd.AddCommand(h.fixCmd())
	h.rootCmd.AddCommand(h.runsCmd())
	h.rootCmd.AddCommand(h.rulesCmd())
	h.rootCmd.AddCommand(h.versionCmd())
}

func (h *Handler) loadConfig() error {
	loader := config.NewLoader()
	cfg, err := loader.Load(h.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	h.cfg = cfg

	// Initialize logger from config
	util.SetDefaultLogger(cfg.Logging)
	util.Debug("Configuration loaded successfully")
	util.Debug("Log level set to: %s", cfg.Logging.Level)

	return nil
}

// runtime bundles the collaborators a command needs
type runtime struct {
	store    store.RunStore
	provider github.Provider
	table    rules.Table
	pool     *controller.Pool
}

// newRuntime wires the run store, provider, rule table and worker pool.
// The returned cleanup stops the pool and closes the store.
func (h *Handler) newRuntime() (*runtime, func(), error) {
	st, err := h.openStore()
	if err != nil {
		return nil, nil, err
	}

	rt := &runtime{
		store:    st,
		provider: github.NewClient(h.cfg.GitHub),
		table:    rules.DefaultTable(),
		pool:     controller.NewPool(h.cfg.Worker, st),
	}
	rt.pool.Start()

	cleanup := func() {
		rt.pool.Stop()
		if err := st.Close(); err != nil {
			util.Warn("Closing run store: %v", err)
		}
	}
	return rt, cleanup, nil
}

func (h *Handler) openStore() (store.RunStore, error) {
	switch h.cfg.Store.Backend {
	case "", "sqlite":
		if err := os.MkdirAll(filepath.Dir(h.cfg.Store.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		return store.NewSQLiteStore(h.cfg.Store.Path)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", h.cfg.Store.Backend)
	}
}

func (h *Handler) newGenerator() (ai.Generator, error) {
	return ai.NewClient(h.cfg.AI)
}

// Execute runs the CLI
func (h *Handler) Execute() error {
	return h.rootCmd.Execute()
}

// Run is the main entry point
func Run() {
	handler := New()
	if err := handler.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
