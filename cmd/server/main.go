// Package main provides the wave boundary HTTP server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"go.ngs.io/wave-boundary/internal/config"
	httpHandler "go.ngs.io/wave-boundary/internal/http"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", os.Getenv("WAVEBC_CONFIG"), "Configuration file")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("wavebc-server version %s\n", version)
		return
	}

	// Load configuration from file and environment.
	port := getEnv("PORT", "8080")
	outputDir := getEnv("OUTPUT_DIR", "./output")

	v := config.New()
	if err := config.ReadFile(v, *configPath); err != nil {
		logrus.Fatalf("Failed to read configuration: %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log, err := cfg.Logger(os.Stderr)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}

	log.Info("Starting wave boundary server...")
	log.WithFields(logrus.Fields{
		"port":       port,
		"output_dir": outputDir,
		"source":     cfg.Source.Path,
		"sel_method": cfg.SelMethod,
		"stats":      cfg.Stats,
	}).Info("Configuration loaded")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Initialize use case. The source is read once here.
	boundary, err := cfg.Boundary(log)
	if err != nil {
		log.Fatalf("Failed to initialize boundary: %v", err)
	}

	// Setup router.
	router := httpHandler.SetupRouter(httpHandler.NewHandler(boundary, outputDir, log))

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	log.Infof("Server listening on %s", addr)
	log.Infof("Health check: http://localhost:%s/health", port)
	log.Info("API endpoints:")
	log.Info("  - POST /v1/boundary")
	log.Info("  - GET  /v1/boundary/:run/:file")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Wave Boundary Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  wavebc-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -config        Configuration file (default: $WAVEBC_CONFIG)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  OUTPUT_DIR              Directory for generated boundary files (default: ./output)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  WAVEBC_CONFIG           Configuration file (yaml, json or toml)")
	fmt.Println("  WAVEBC_*                Any configuration key, e.g. WAVEBC_SOURCE_PATH")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with a configuration file")
	fmt.Println("  wavebc-server -config wavebc.yaml")
	fmt.Println()
	fmt.Println("  # Start server on custom port")
	fmt.Println("  PORT=3000 WAVEBC_SOURCE_PATH=stations.nc wavebc-server")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                     Health check")
	fmt.Println("  POST /v1/boundary                Write boundary files for a grid")
	fmt.Println("  GET  /v1/boundary/:run/:file     Download a generated boundary file")
	fmt.Println()
}
