// Floralink - Xiaomi plant and climate sensor MQTT bridge
//
// This is the main entry point for the Floralink daemon. It polls
// Mi Flora plant sensors and Mijia thermometers through an external
// reader helper and republishes their readings to an MQTT broker in one
// of seven wire formats, or to stdout for local use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/floralink/internal/heartbeat"
	"github.com/nerrad567/floralink/internal/infrastructure/config"
	"github.com/nerrad567/floralink/internal/infrastructure/influxdb"
	"github.com/nerrad567/floralink/internal/infrastructure/logging"
	"github.com/nerrad567/floralink/internal/infrastructure/mqtt"
	"github.com/nerrad567/floralink/internal/journal"
	"github.com/nerrad567/floralink/internal/poller"
	"github.com/nerrad567/floralink/internal/reader"
	"github.com/nerrad567/floralink/internal/report"
	"github.com/nerrad567/floralink/internal/sensor"
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

func main() {
	genOpenHAB := flag.Bool("gen-openhab", false, "generate openHAB items based on configured sensors and exit")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *genOpenHAB); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - genOpenHAB: Export openHAB items for the configured sensors and exit
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, genOpenHAB bool) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Floralink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	notifier := heartbeat.New()

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		notifier.Notify("STATUS=Configuration error, exiting")
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Resolve the reporting mode before touching any hardware or broker
	mode, err := report.ParseMode(cfg.Reporting.Mode)
	if err != nil {
		notifier.Notify("STATUS=Unrecognised reporting mode, exiting")
		return fmt.Errorf("resolving reporting mode: %w", err)
	}

	dispatcher := report.NewDispatcher(mode, cfg.Reporting.BaseTopic, cfg.Reporting.DeviceID)
	log.Info("reporting mode selected",
		"mode", mode.String(),
		"base_topic", dispatcher.BaseTopic(),
	)
	if mode == report.ModeWirenboard && cfg.Reporting.BaseTopic != "" {
		// The Wiren Board convention pins its own /devices hierarchy.
		log.Warn("wirenboard-mqtt ignores the configured base topic",
			"base_topic", cfg.Reporting.BaseTopic)
	}

	// Build the sensor registry
	reg := sensor.NewRegistry()
	reg.SetLogger(log)
	factory := reader.Factory(cfg.Reader.Command, cfg.Reader.Args, cfg.ReaderTimeout())

	if len(cfg.Sensors.Miflora) > 0 {
		if err := reg.AddFamily(sensor.ClassMiflora, cfg.Sensors.Miflora, cfg.MifloraPeriod(), factory); err != nil {
			notifier.Notify("STATUS=Sensor configuration error, exiting")
			return fmt.Errorf("registering miflora sensors: %w", err)
		}
	}
	if len(cfg.Sensors.Mitempbt) > 0 {
		if err := reg.AddFamily(sensor.ClassMitempbt, cfg.Sensors.Mitempbt, cfg.MitempbtPeriod(), factory); err != nil {
			notifier.Notify("STATUS=Sensor configuration error, exiting")
			return fmt.Errorf("registering mitempbt sensors: %w", err)
		}
	}
	log.Info("sensor registry built", "sensors", reg.Len())

	// One-shot items export runs before any broker connection
	if genOpenHAB {
		items, err := report.OpenHABItems(dispatcher, reg)
		if err != nil {
			notifier.Notify("STATUS=openHAB items export failed, exiting")
			return fmt.Errorf("generating openHAB items: %w", err)
		}
		log.Info("generated openHAB items, copy to your configuration and modify as needed")
		fmt.Fprint(os.Stdout, items)
		return nil
	}

	// Connect to the MQTT broker (all modes except local json output)
	var broker *mqtt.Client
	if mode.UsesBroker() {
		var will *mqtt.Will
		if action, ok := mode.Will(dispatcher.BaseTopic(), cfg.Reporting.DeviceID); ok {
			will = &mqtt.Will{
				Topic:    action.Topic,
				Payload:  string(action.Payload),
				QoS:      action.QoS,
				Retained: action.Retained,
			}
		}

		broker, err = mqtt.Connect(cfg.MQTT, will)
		if err != nil {
			notifier.Notify("STATUS=MQTT connection failed, exiting")
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := broker.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		broker.SetLogger(log)
		broker.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
	} else {
		log.Info("local output mode, broker disabled")
	}

	// Publisher executes dispatch output against the broker or stdout
	var publisher *report.Publisher
	if broker != nil {
		publisher = report.NewPublisher(dispatcher, broker, os.Stdout)
	} else {
		publisher = report.NewPublisher(dispatcher, nil, os.Stdout)
	}
	publisher.SetLogger(log)

	// First contact: prime caches and capture firmware revisions
	notifier.Notify("STATUS=Contacting sensors")
	reg.InitialContact()

	// mqtt-smarthome announces connectivity once the broker link is up
	if action, ok := mode.Connected(dispatcher.BaseTopic()); ok && broker != nil {
		if err := broker.Publish(action.Topic, action.Payload, action.QoS, action.Retained); err != nil {
			log.Warn("publishing connectivity state failed", "error", err)
		}
	}

	// Discovery metadata for the modes that define a convention
	if err := publisher.Announce(reg); err != nil {
		log.Warn("discovery announcement failed", "error", err)
	}

	// Optional poll-history journal
	var sinks []poller.Sink
	if cfg.Journal.Enabled {
		j, err := journal.Open(journal.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if err != nil {
			notifier.Notify("STATUS=Journal error, exiting")
			return fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := j.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		log.Info("journal opened", "path", j.Path())
		sinks = append(sinks, j)
	} else {
		log.Info("journal disabled")
	}

	// Optional InfluxDB reading mirror
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			notifier.Notify("STATUS=InfluxDB error, exiting")
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
			"bucket", cfg.InfluxDB.Bucket,
		)
		sinks = append(sinks, influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// One polling worker per family, sharing the radio bus lock
	bus := &sync.Mutex{}
	var wg sync.WaitGroup

	for _, class := range reg.Classes() {
		if len(reg.Instances(class)) == 0 {
			continue
		}

		var period time.Duration
		switch class {
		case sensor.ClassMiflora:
			period = cfg.MifloraPeriod()
		case sensor.ClassMitempbt:
			period = cfg.MitempbtPeriod()
		}

		worker, err := poller.NewWorker(poller.Config{
			Class:    class,
			Registry: reg,
			Reporter: publisher,
			Bus:      bus,
			Period:   period,
			Daemon:   cfg.Daemon.Enabled,
			Sinks:    sinks,
			Notifier: notifier,
		})
		if err != nil {
			return fmt.Errorf("creating %s worker: %w", class, err)
		}
		worker.SetLogger(log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}

	notifier.Ready()
	log.Info("initialisation complete",
		"daemon", cfg.Daemon.Enabled,
		"sensors", reg.Len(),
	)

	// Daemon mode: workers run until a shutdown signal cancels ctx.
	// One-shot mode: workers return after a single pass each.
	wg.Wait()

	notifier.Notify("STOPPING=1")
	log.Info("Floralink stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FLORALINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FLORALINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
