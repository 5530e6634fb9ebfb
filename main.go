package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/bootstrap"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/version"
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	// Check if command is provided
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Handle subcommands
	switch args[0] {
	case "server":
		runServer()
	case "notify":
		runNotify()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Multi-tenant inventory monitor with out-of-stock email alerts")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the HTTP API server")
	fmt.Println("  notify    Run one notification sweep over all locations and exit")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	// Email settings are only needed when alerts fire; warn instead of fail
	if err := cfg.ValidateEmailConfig(); err != nil {
		log.Printf("Warning: %v (notification sends will fail until configured)", err)
	}

	if err := bootstrap.RunServer(cfg); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}

// runNotify executes one sweep for an external scheduler (cron). Exit
// code is non-zero only when the sweep itself cannot run; per-location
// failures are reported inside the printed JSON report.
func runNotify() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.ValidateEmailConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	report, err := bootstrap.RunNotify(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Notification run failed: %v", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode run report: %v", err)
	}
	fmt.Println(string(out))
}
