// Corvid - a teaching relational storage core
// Main entry point for the interactive shell
package main

import (
	"fmt"
	"os"

	"github.com/corvidb/corvid/internal/cli"
	"github.com/corvidb/corvid/internal/config"
	"github.com/corvidb/corvid/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0"
	buildDate = "dev"
	cfgFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corvid",
		Short: "Corvid - a relational storage core",
		Long: `Corvid is a teaching relational storage core: tuple layout,
value carriers, and a catalog cache over an in-memory file substrate.

Start the interactive shell:
  corvid

Start with a specific config file:
  corvid --config /path/to/config.yaml`,
		Run: runShell,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("corvid %s (built %s)\n", version, buildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new data directory",
		Args:  cobra.MaximumNArgs(1),
		Run:   initDataDir,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runShell(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting corvid", "version", version, "data_dir", cfg.Storage.DataDir)

	cc, err := cli.Bootstrap(cfg)
	if err != nil {
		log.Error("catalog bootstrap failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	repl := cli.NewREPL(cfg, log, cc)
	if err := repl.Run(); err != nil {
		log.Error("REPL error", "error", err)
		os.Exit(1)
	}
}

func initDataDir(cmd *cobra.Command, args []string) {
	dir := "./data"
	if len(args) > 0 {
		dir = args[0]
	}

	fmt.Printf("Initializing a new corvid data directory in: %s\n", dir)

	if err := config.InitDataDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfgPath := "corvid.yaml"
	if err := config.CreateDefaultConfig(cfgPath, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create config file: %v\n", err)
	} else {
		fmt.Printf("Created config file: %s\n", cfgPath)
	}

	fmt.Println("Data directory initialized. Catalog state itself is in-memory only for")
	fmt.Println("this core (no non-volatile file substrate is implemented), so every")
	fmt.Println("shell session re-bootstraps its catalog from scratch.")
	fmt.Printf("Start the shell with: corvid --config %s\n", cfgPath)
}
