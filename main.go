package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: studioctl <command> [flags]

Commands:
  configure   Create or update deployment configuration interactively
  deploy      Provision or reconcile the Creative Studio infrastructure
  import      Bring pre-existing cloud resources under terraform state
  render      Print the generated terraform.tfvars and app env file
  destroy     Destroy all infrastructure
  version     Print the version

Run 'studioctl <command> --help' for command-specific flags.
`)
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "-help") {
		usage()
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Println("studioctl " + version)
		os.Exit(0)
	}

	cmd := ""
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch cmd {
	case "configure":
		fs := flag.NewFlagSet("studioctl configure", flag.ExitOnError)
		configPath := fs.String("config", "", "Path to config.json")
		fs.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: studioctl configure [flags]\n\nCreate or update deployment configuration interactively.\n\nFlags:\n")
			fs.PrintDefaults()
		}
		_ = fs.Parse(args)
		runConfigure(*configPath)
		fmt.Printf("Configuration saved to %s\n", configPathOrDefault(*configPath))

	case "deploy":
		runDeploy(ctx, args)

	case "import":
		runImport(ctx, args)

	case "render":
		runRender(args)

	case "destroy":
		runDestroy(ctx, args)

	case "":
		usage()
		os.Exit(1)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// ── configure ────────────────────────────────────────────────────

func runConfigure(configPath string) {
	firstRun := !loadConfigFile(configPath)

	if cfg.ProjectID == "" {
		if p := inferProjectID(); p != "" {
			cfg.ProjectID = p
		}
	}

	runInteractiveSetup(firstRun)
	applyDefaults()

	if cfg.ProjectID == "" {
		log.Fatalf("project_id is required.\nUse 'studioctl configure' and provide a GCP Project ID")
	}

	if err := saveConfig(configPath); err != nil {
		log.Fatalf("failed to save config: %v", err)
	}
}
