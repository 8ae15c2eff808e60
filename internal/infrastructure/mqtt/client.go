package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/floralink/internal/infrastructure/config"
)

// Will is the Last Will and Testament registered at connect time.
//
// The broker publishes it if the client disconnects unexpectedly. The
// reporting mode decides topic and payload: homie announces
// "$online false", mqtt-smarthome "connected 0", and so on.
type Will struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// Client wraps paho.mqtt.golang for the publish-only daemon.
//
// It provides connection management, publishing with QoS guarantees,
// automatic reconnection with exponential backoff, and credential
// switching for brokers that authenticate each sensor separately.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - ReconnectAs callers must serialise whole publish sequences
//     themselves; the reporting layer does this.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig
	will    *Will

	// username is the credential of the current connection; empty means
	// the configured auth username.
	username string

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// Callbacks for connection events (optional, set via SetOnConnect/SetOnDisconnect).
	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	// logger for connection event logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS)
//  2. Registers the caller's Last Will and Testament, if any
//  3. Sets up auto-reconnect with exponential backoff
//  4. Attempts initial connection with timeout
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - will: Mode-specific LWT; nil for modes without an offline convention
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If initial connection fails within timeout
func Connect(cfg config.MQTTConfig, will *Will) (*Client, error) {
	opts := buildClientOptions(cfg)
	if will != nil {
		opts.SetWill(will.Topic, will.Payload, will.QoS, will.Retained)
	}

	c := &Client{
		cfg:     cfg,
		options: opts,
		will:    will,
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// Set connected state immediately after successful connection.
	// The OnConnectHandler callback runs asynchronously and may not have
	// executed yet, so we set it here to ensure IsConnected() returns true.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return c, nil
}

// handleConnect is called when the connection is established.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleDisconnect is called when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("MQTT connection lost", "error", err)
	}

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// ReconnectAs tears the connection down and reconnects under a different
// username, keeping the configured password. Brokers like ThingsBoard
// identify the device by its access token in the username field, so each
// sensor's telemetry needs its own connection identity.
//
// A no-op when the connection already carries the requested username.
//
// Parameters:
//   - username: The credential for the next connection
//
// Returns:
//   - error: If the new connection fails within timeout
func (c *Client) ReconnectAs(username string) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.username == username && c.connected && c.client.IsConnected() {
		return nil
	}

	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(defaultDisconnectQuiesce)
	}
	c.connected = false

	c.options.SetUsername(username)
	c.options.SetPassword(c.cfg.Auth.Password)

	c.client = pahomqtt.NewClient(c.options)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("%w: timeout after %v reconnecting as %q",
			ErrConnectionFailed, defaultConnectTimeout, username)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: reconnecting as %q: %w", ErrConnectionFailed, username, err)
	}

	c.username = username
	c.connected = true
	return nil
}

// Close gracefully disconnects from the MQTT broker.
//
// If a will was registered, its payload is published first: a clean
// shutdown should leave the same offline marker behind as a crash would.
//
// Returns:
//   - error: If disconnect fails (connection already closed is not an error)
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.will != nil && c.IsConnected() {
		token := c.client.Publish(c.will.Topic, c.will.QoS, c.will.Retained, c.will.Payload)
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	return nil
}

// HealthCheck verifies the MQTT connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use HealthCheck which can perform an active test.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// SetOnConnect sets a callback to be invoked when connection is established.
// This is called on initial connect and on every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback to be invoked when connection is lost.
// The error parameter describes why the connection was lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for connection event logging.
// If not set, lost connections are not logged.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
