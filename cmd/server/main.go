// Package main provides the Argo data API HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jtomfarrar/argopy/internal/adapter/source/erddap"
	"github.com/jtomfarrar/argopy/internal/adapter/source/gdac"
	"github.com/jtomfarrar/argopy/internal/fetcher"
	httpHandler "github.com/jtomfarrar/argopy/internal/http"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("argopy version %s\n", version)
		return
	}

	// Load configuration from environment.
	port := getEnv("PORT", "8080")
	erddapURL := getEnv("ERDDAP_URL", erddap.DefaultBaseURL)
	gdacRoot := getEnv("GDAC_ROOT", "")

	log.Printf("Starting Argo data API server...")
	log.Printf("Port: %s", port)
	log.Printf("ERDDAP server: %s", erddapURL)

	// Build the source registry.
	registry := fetcher.NewRegistry(erddap.New(erddapURL))
	if gdacRoot != "" {
		log.Printf("GDAC mirror: %s", gdacRoot)
		registry.Register(gdac.New(gdacRoot))
	} else {
		log.Printf("GDAC mirror disabled (GDAC_ROOT not set)")
	}
	log.Printf("Registered sources: %v", registry.Names())

	// Setup router.
	router := httpHandler.SetupRouter(registry)

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/sources")
	log.Printf("  - GET /v1/data/{float,profile,region}")
	log.Printf("  - GET /v1/index/{float,region,plot}")

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
	fmt.Printf("Argo data API server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  ERDDAP_URL              ERDDAP server URL (default: Ifremer node)")
	fmt.Println("  GDAC_ROOT               Local GDAC mirror directory (optional)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /v1/sources                List registered data sources")
	fmt.Println("  GET /v1/data/float             Fetch data for one or more floats (wmo=...)")
	fmt.Println("  GET /v1/data/profile           Fetch specific profiles (wmo=...&cyc=...)")
	fmt.Println("  GET /v1/data/region            Fetch data for a space/time box (box=...)")
	fmt.Println("  GET /v1/index/float            Fetch index entries for floats")
	fmt.Println("  GET /v1/index/region           Fetch index entries for a box")
	fmt.Println("  GET /v1/index/plot             Render an index chart (ptype=trajectory|dac|profiler)")
	fmt.Println()
}
