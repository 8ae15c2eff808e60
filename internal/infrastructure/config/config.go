package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Floralink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Reporting ReportingConfig `yaml:"reporting"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	Reader    ReaderConfig    `yaml:"reader"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Journal   JournalConfig   `yaml:"journal"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ReportingConfig selects the publish encoding and topic conventions.
type ReportingConfig struct {
	// Mode is one of: mqtt-json, mqtt-homie, homeassistant-mqtt,
	// thingsboard-json, mqtt-smarthome, wirenboard-mqtt, json.
	Mode string `yaml:"mode"`

	// BaseTopic overrides the mode's default base topic. Lowercased on use.
	BaseTopic string `yaml:"base_topic"`

	// DeviceID is the homie device identifier (mqtt-homie mode only).
	DeviceID string `yaml:"device_id"`
}

// DaemonConfig controls the polling loop.
type DaemonConfig struct {
	// Enabled selects continuous operation. When false every worker makes
	// exactly one polling pass and the process exits.
	Enabled bool `yaml:"enabled"`

	// PeriodMiflora is the Mi Flora poll period in seconds.
	PeriodMiflora int `yaml:"period_miflora"`

	// PeriodMitempbt is the Mijia thermometer poll period in seconds.
	PeriodMitempbt int `yaml:"period_mitempbt"`
}

// ReaderConfig selects the external sensor reader helper.
//
// The wireless transport lives outside the daemon: a helper command is
// invoked once per acquisition attempt with the device class and MAC
// address appended as arguments, and prints the parameter values as a
// JSON object on stdout.
type ReaderConfig struct {
	// Command is the helper executable. Required.
	Command string `yaml:"command"`

	// Args are fixed arguments placed before the class and MAC.
	Args []string `yaml:"args"`

	// Timeout is the per-invocation limit in seconds.
	Timeout int `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TLS       bool   `yaml:"tls"`
	ClientID  string `yaml:"client_id"`
	KeepAlive int    `yaml:"keepalive"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// SensorsConfig lists the configured sensors per device family.
//
// Each entry maps a display name to a hardware MAC address. The name may
// carry an optional location suffix: "Petunia@Balcony". Names are
// transliterated into unique internal identifiers at registry build time.
type SensorsConfig struct {
	Miflora  map[string]string `yaml:"miflora"`
	Mitempbt map[string]string `yaml:"mitempbt"`
}

// JournalConfig contains the optional SQLite poll-history journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains the optional InfluxDB reading mirror settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FLORALINK_SECTION_KEY
// For example: FLORALINK_MQTT_HOST, FLORALINK_REPORTING_MODE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The poll periods mirror the hardware's practical refresh rates: Mi Flora
// soil readings drift slowly (5 minutes), the Mijia thermometer tracks room
// climate (1 minute).
func defaultConfig() *Config {
	return &Config{
		Reporting: ReportingConfig{
			Mode:     "mqtt-json",
			DeviceID: "floralink",
		},
		Daemon: DaemonConfig{
			Enabled:        true,
			PeriodMiflora:  300,
			PeriodMitempbt: 60,
		},
		Reader: ReaderConfig{
			Command: "/usr/local/bin/misensor-read",
			Timeout: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:      "localhost",
				Port:      1883,
				ClientID:  "floralink",
				KeepAlive: 60,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Journal: JournalConfig{
			Path:        "./data/floralink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FLORALINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Reporting
	if v := os.Getenv("FLORALINK_REPORTING_MODE"); v != "" {
		cfg.Reporting.Mode = v
	}
	if v := os.Getenv("FLORALINK_REPORTING_BASE_TOPIC"); v != "" {
		cfg.Reporting.BaseTopic = v
	}

	// MQTT
	if v := os.Getenv("FLORALINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FLORALINK_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("FLORALINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FLORALINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Reader
	if v := os.Getenv("FLORALINK_READER_COMMAND"); v != "" {
		cfg.Reader.Command = v
	}

	// Journal
	if v := os.Getenv("FLORALINK_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// InfluxDB
	if v := os.Getenv("FLORALINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// validModes lists the accepted reporting mode strings, matching
// report.ParseMode. Checked here so an unrecognised mode surfaces before any
// broker connection is attempted.
var validModes = []string{
	"mqtt-json",
	"mqtt-homie",
	"homeassistant-mqtt",
	"thingsboard-json",
	"mqtt-smarthome",
	"wirenboard-mqtt",
	"json",
}

// Validate checks the configuration for errors.
//
// Every failure reported here is fatal: the daemon refuses to start rather
// than run with a partially valid configuration.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Reporting validation
	modeOK := false
	for _, m := range validModes {
		if c.Reporting.Mode == m {
			modeOK = true
			break
		}
	}
	if !modeOK {
		errs = append(errs, fmt.Sprintf("reporting.mode %q is not a recognised reporting mode", c.Reporting.Mode))
	}

	// Sensor validation: an empty registry means the daemon has nothing to do.
	if len(c.Sensors.Miflora) == 0 && len(c.Sensors.Mitempbt) == 0 {
		errs = append(errs, "no sensors configured (sensors.miflora / sensors.mitempbt)")
	}

	// Reader validation
	if c.Reader.Command == "" {
		errs = append(errs, "reader.command is required")
	}
	if c.Reader.Timeout < 1 {
		errs = append(errs, "reader.timeout must be at least 1 second")
	}

	// Daemon validation
	if c.Daemon.PeriodMiflora < 1 {
		errs = append(errs, "daemon.period_miflora must be at least 1 second")
	}
	if c.Daemon.PeriodMitempbt < 1 {
		errs = append(errs, "daemon.period_mitempbt must be at least 1 second")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	// Journal validation
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal.enabled is true")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb.enabled is true")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb.enabled is true")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReaderTimeout returns the helper invocation limit as a Duration.
func (c *Config) ReaderTimeout() time.Duration {
	return time.Duration(c.Reader.Timeout) * time.Second
}

// MifloraPeriod returns the Mi Flora poll period as a Duration.
func (c *Config) MifloraPeriod() time.Duration {
	return time.Duration(c.Daemon.PeriodMiflora) * time.Second
}

// MitempbtPeriod returns the Mijia thermometer poll period as a Duration.
func (c *Config) MitempbtPeriod() time.Duration {
	return time.Duration(c.Daemon.PeriodMitempbt) * time.Second
}
