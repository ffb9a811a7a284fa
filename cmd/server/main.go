// Package main provides the tides HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"

	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/adapter/store/csv"
	"go.ngs.io/tides/internal/adapter/store/fes"
	"go.ngs.io/tides/internal/adapter/store/sqlite"
	httpHandler "go.ngs.io/tides/internal/http"
	"go.ngs.io/tides/internal/usecase"
)

const version = "0.2.0"

// Config is read from the environment.
type Config struct {
	Port           string   `envconfig:"PORT" default:"8080"`
	DataDir        string   `envconfig:"DATA_DIR" default:"./data"`
	FESIni         string   `envconfig:"FES_INI"`
	FESDataPath    string   `envconfig:"FES_DATA_PATH"`
	StationDB      string   `envconfig:"STATION_DB"`
	DatumOffsets   string   `envconfig:"DATUM_OFFSETS"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	Debug          bool     `envconfig:"DEBUG"`
}

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("tides version %s\n", version)
		return
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	log.Printf("Starting tides server...")
	log.Printf("Port: %s", cfg.Port)

	var stations store.ConstituentLoader
	var opts []usecase.Option
	if cfg.StationDB != "" {
		db, err := sqlite.Open(cfg.StationDB)
		if err != nil {
			log.Fatalf("Failed to open station database: %v", err)
		}
		defer db.Close()
		stations = db
		opts = append(opts, usecase.WithStationSource(usecase.SourceSQLite))
		log.Printf("Station database: %s", cfg.StationDB)
	} else {
		stations = csv.NewConstituentStore(cfg.DataDir)
		log.Printf("Data directory: %s", cfg.DataDir)
	}

	var atlas store.ConstituentLoader
	if cfg.FESIni != "" {
		fesStore, err := fes.Open(cfg.FESIni, cfg.FESDataPath)
		if err != nil {
			log.Fatalf("Failed to open FES configuration: %v", err)
		}
		defer fesStore.Close()
		atlas = fesStore
		log.Printf("FES configuration: %s (%d constituents)", cfg.FESIni, len(fesStore.Constituents()))
	} else {
		log.Printf("FES atlas disabled (FES_INI not set); lat/lon queries will be rejected")
	}

	if cfg.DatumOffsets != "" {
		table, err := usecase.LoadDatumTable(cfg.DatumOffsets)
		if err != nil {
			log.Fatalf("Failed to load datum offsets: %v", err)
		}
		opts = append(opts, usecase.WithDatumTable(table))
		log.Printf("Datum offsets: %s", cfg.DatumOffsets)
	}

	predictionUC := usecase.NewPredictionUseCase(stations, atlas, opts...)
	router := httpHandler.SetupRouter(predictionUC, cfg.AllowedOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/tides/predictions")
	log.Printf("  - GET /v1/constituents")
	log.Printf("  - GET /v1/constituents/:name/decomposition")
	log.Printf("  - GET /metrics")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func printUsage() {
	fmt.Printf("Tides Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  tides-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATA_DIR                CSV station directory (default: ./data)")
	fmt.Println("  STATION_DB              SQLite station database, replaces DATA_DIR when set")
	fmt.Println("  FES_INI                 FES2014 ini file describing the atlas (optional)")
	fmt.Println("  FES_DATA_PATH           Value substituted for ${FES_DATA} in FES_INI")
	fmt.Println("  DATUM_OFFSETS           JSON file of chart datum offsets (optional)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  DEBUG                   Enable debug logging")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                                 Health check")
	fmt.Println("  GET /metrics                                Prometheus metrics")
	fmt.Println("  GET /v1/constituents                        List tidal constituents")
	fmt.Println("  GET /v1/constituents/:name/decomposition    Decompose a compound constituent")
	fmt.Println("  GET /v1/tides/predictions                   Get tide predictions")
	fmt.Println()
}
