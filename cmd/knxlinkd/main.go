// knxlinkd - KNX USB to MQTT gateway
//
// This is the main entry point for the knxlink gateway. It fronts a
// single KNX USB interface: inbound HID report streams are reassembled
// into data-link frames and published to MQTT; transmit requests from
// MQTT are fragmented into report sequences and written to the device.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arlobright/knxlink/internal/api"
	"github.com/arlobright/knxlink/internal/bridge"
	"github.com/arlobright/knxlink/internal/device"
	"github.com/arlobright/knxlink/internal/infrastructure/config"
	"github.com/arlobright/knxlink/internal/infrastructure/database"
	"github.com/arlobright/knxlink/internal/infrastructure/influxdb"
	"github.com/arlobright/knxlink/internal/infrastructure/logging"
	"github.com/arlobright/knxlink/internal/infrastructure/mqtt"
	"github.com/arlobright/knxlink/internal/recorder"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// healthCheckTimeout bounds the startup connectivity verification.
const healthCheckTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting knxlink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the traffic database and recorder (optional)
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		db, err := database.Open(cfg.Recorder)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Recorder.Path)

		rec = recorder.New(db.DB, cfg.Interface.Name)
		rec.SetLogger(log)
		if err := rec.Start(); err != nil {
			return fmt.Errorf("starting recorder: %w", err)
		}
		defer rec.Stop()
	} else {
		log.Info("traffic recorder disabled")
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Frame listener registry
	registry := device.NewRegistry()
	registry.SetLogger(log)

	// Open the HID transport
	transport, err := bridge.OpenHIDTransport(cfg.Transport.Device)
	if err != nil {
		return fmt.Errorf("opening transport: %w", err)
	}
	log.Info("HID transport opened", "device", cfg.Transport.Device)

	// Build and start the bridge
	busBridge, err := bridge.New(cfg, mqttClient, transport)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	busBridge.SetLogger(log)
	busBridge.SetObserver(registry)
	if rec != nil {
		busBridge.SetRecorder(rec)
	}
	if influxClient != nil {
		busBridge.SetTelemetry(influxClient)
	}

	if err := busBridge.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		busBridge.Stop()
	}()

	// Start the API server (optional)
	if cfg.API.Enabled {
		var stats api.StatsProvider
		if rec != nil {
			stats = rec
		}
		apiServer, err := api.New(api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Logger:    log,
			Interface: cfg.Interface.Name,
			Stats:     stats,
			Broker:    mqttClient,
			Version:   version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()

		// Stream every frame to connected monitor clients.
		registry.Subscribe(apiServer.HandleFrame)
	} else {
		log.Info("API server disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("knxlink stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses KNXLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("KNXLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: Description of the first failing check, or nil
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := mqttClient.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
