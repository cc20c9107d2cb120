package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/stack-autocrop/internal/config"
	"github.com/ironsheep/stack-autocrop/internal/pipeline"
	"github.com/ironsheep/stack-autocrop/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version, --help and subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("stack-autocrop %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "crop":
			setupLogging()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runCrop(ctx, os.Args[2:], os.Stdout); err != nil {
				log.Printf("crop: %v", err)
				os.Exit(1)
			}
			return
		}
	}

	setupLogging()

	cfg := config.Default()
	if path := os.Getenv("STACK_AUTOCROP_CONFIG"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			log.Fatalf("Config error: %v", err)
		}
	}

	srv := server.NewWithConfig(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("stack-autocrop - crop stacked images to the area every frame covers")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  stack-autocrop                 Run the MCP server on stdin/stdout")
	fmt.Println("  stack-autocrop crop [options] <coverage> <channel>...")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Crop options:")
	fmt.Println("  -config file     YAML configuration file")
	fmt.Println("  -reuse           Reuse the rectangle stored in <coverage>.crop.yaml")
	fmt.Println("  -persist         Store the solved rectangle in <coverage>.crop.yaml (default true)")
	fmt.Println("  -o dir           Write cropped channels to dir")
	fmt.Println("  -json            Print the outcome as JSON")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  STACK_AUTOCROP_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println("  STACK_AUTOCROP_CONFIG=file.yaml   Configuration for the MCP server")
	fmt.Println()
	fmt.Println("The server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func setupLogging() {
	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	logLevel := os.Getenv("STACK_AUTOCROP_LOG_LEVEL")
	if logLevel == "debug" {
		log.Printf("stack-autocrop v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}
}

// runCrop implements the crop subcommand.
func runCrop(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("crop", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	reuse := fs.Bool("reuse", false, "reuse the stored crop rectangle")
	persist := fs.Bool("persist", true, "store the solved crop rectangle")
	outDir := fs.String("o", "", "output directory for cropped channels")
	asJSON := fs.Bool("json", false, "print the outcome as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: stack-autocrop crop [options] <coverage> <channel>...")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}

	runner := pipeline.New(cfg, nil)
	out, err := runner.Run(ctx, pipeline.Request{
		Coverage: fs.Arg(0),
		Channels: fs.Args()[1:],
		Reuse:    *reuse,
		Persist:  *persist,
	})
	if err != nil {
		if out != nil && out.Rectangle != nil && out.Rectangle.Solve != nil && *asJSON {
			writeJSON(stdout, out)
		}
		return err
	}

	if *asJSON {
		return writeJSON(stdout, out)
	}

	rect := out.Rectangle
	source := "solved"
	if rect.Reused {
		source = "reused " + rect.Sidecar
	}
	fmt.Fprintf(stdout, "%s: %dx%d, crop %s (%s)\n", rect.Coverage, rect.Width, rect.Height, rect.Box, source)
	fmt.Fprintf(stdout, "  margins: %s\n", rect.Margins)
	if rect.Solve != nil && rect.Solve.Diagnostics != "" {
		fmt.Fprintf(stdout, "  note: %s\n", rect.Solve.Diagnostics)
	}
	for _, ch := range out.Channels {
		fmt.Fprintf(stdout, "  %s -> %s (%dx%d, %d-bit)\n", ch.Source, ch.Output, ch.Width, ch.Height, ch.BitDepth)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
