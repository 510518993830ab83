package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/spalen0/velov2/internal/config"
	"github.com/spalen0/velov2/internal/distributor"
	"github.com/spalen0/velov2/internal/gauge"
	"github.com/spalen0/velov2/internal/logger"
	"github.com/spalen0/velov2/internal/metrics"
	"github.com/spalen0/velov2/internal/oracle"
	"github.com/spalen0/velov2/internal/pair"
	"github.com/spalen0/velov2/internal/state"
	"github.com/spalen0/velov2/internal/token"
	"github.com/spalen0/velov2/internal/web"
)

const (
	LOOP_INTERVAL = 1 * time.Minute
)

// main is the entry point for the gauge service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Gauge service starting...")

	// Initialize Database Connection (event journal and epoch history)
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Bank Ledger Initialization (with Safety Switch) ---
	gaugeMode := os.Getenv("GAUGE_MODE")
	if gaugeMode != "ledger" {
		log.Fatal().Msg("GAUGE_MODE is not set to 'ledger'. Halting to prevent accidental execution. Set GAUGE_MODE=ledger to run.")
	}

	bank := token.NewLedger()
	seedSupply := os.Getenv("GAUGE_SEED_SUPPLY")
	if seedSupply != "" {
		supply, ok := sdkmath.NewIntFromString(seedSupply)
		if !ok {
			log.Fatal().Str("value", seedSupply).Msg("GAUGE_SEED_SUPPLY must be a base-10 integer")
		}
		if err := bank.Mint(config.Authority, config.RewardDenom, supply); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed authority reward supply")
		}
		log.Info().Str("supply", supply.String()).Msg("Authority reward supply seeded")
	}

	// --- 3. Authorization Oracle ---
	var authOracle oracle.AuthorizationOracle
	if config.OracleGRPC != "" {
		var creds grpc.DialOption
		if strings.Contains(config.OracleGRPC, ":443") {
			creds = grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{}))
		} else {
			creds = grpc.WithTransportCredentials(insecure.NewCredentials())
		}
		grpcClient, err := grpc.Dial(config.OracleGRPC, creds)
		if err != nil {
			log.Fatal().Err(err).Msg("gRPC connection error")
		}
		defer grpcClient.Close()

		authOracle, err = oracle.NewGRPCOracle(grpcClient)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize authorization oracle")
		}
		log.Info().Str("endpoint", config.OracleGRPC).Msg("Authorization oracle connected")
	} else {
		log.Warn().Msg("ORACLE_GRPC not set, gauge will always be treated as authorized")
		authOracle = oracle.NewStatic(true)
	}

	// --- 4. Gauge Construction with Dependency Injection ---
	gaugeCfg := gauge.Config{
		Gauge:  config.GaugeTypesConfig(),
		Bank:   bank,
		Oracle: authOracle,
		Sink: gauge.MultiSink{
			gauge.LogSink{Logger: logger.GetForComponent("gauge_events")},
			metrics.Sink{},
			state.JournalSink{GaugeAddress: config.GaugeAddress},
		},
	}

	if config.IsPair {
		feePair, err := pair.New(bank, config.GaugeAddress+"/pair", config.GaugeAddress, config.PairToken0, config.PairToken1)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize pair")
		}
		gaugeCfg.Pair = feePair
	}

	g, err := gauge.New(gaugeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gauge instance")
	}
	log.Info().Msg("Gauge instance created successfully")

	// --- 5. Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, g)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting gauge web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 6. Start Distribution Loop ---
	dist, err := distributor.New(distributor.Config{
		Gauge:       g,
		Authority:   config.Authority,
		EpochBudget: config.EpochBudget,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create distributor")
	}

	log.Info().Str("interval", LOOP_INTERVAL.String()).Msg("Starting distribution loop")
	ctx := context.Background()
	dist.RunLoop(ctx, LOOP_INTERVAL)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
