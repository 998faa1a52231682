// Package tank keeps a live, cached model of one Mixergy tank. State is fed
// by REST polling and by a STOMP push subscription; mutations are written
// through the REST API and followed by a re-fetch of the affected resource.
package tank

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/models"
)

// Endpoints and timing used by the reference deployment.
const (
	DefaultRootURL        = "https://www.mixergy.io/api/v2"
	DefaultStompURL       = "wss://www.mixergy.io/api/v1/stomp"
	DefaultRequestTimeout = 60 * time.Second
	DefaultConnectTimeout = 15 * time.Second
	DefaultRetryDelay     = 15 * time.Second
	DefaultPollInterval   = 30 * time.Second
)

// Config holds everything needed to build a Client.
type Config struct {
	Username     string
	Password     string
	SerialNumber string

	RootURL        string
	StompURL       string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	RetryDelay     time.Duration

	HTTPClient *http.Client
	Logger     *logger.Logger
	Events     EventSink
	Metrics    Metrics
}

func (cfg *Config) applyDefaults() {
	if cfg.RootURL == "" {
		cfg.RootURL = DefaultRootURL
	}
	if cfg.StompURL == "" {
		cfg.StompURL = DefaultStompURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if cfg.Events == nil {
		cfg.Events = nopSink{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
}

// endpoints are the working URLs discovered for the tank.
type endpoints struct {
	measurement string
	control     string
	settings    string
	schedule    string
}

// Client is the cached model of one tank. All methods are safe for
// concurrent use.
type Client struct {
	cfg    Config
	serial string
	id     string
	http   *http.Client
	log    *logger.Logger

	// opMu serialises fetch cycles and commands so read-modify-write
	// sequences never interleave.
	opMu sync.Mutex

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
	urls        endpoints
	info        models.TankInfo
	state       models.TankState

	observers observerRegistry
	push      pushChannel

	// afterFunc schedules reconnects; replaced in tests.
	afterFunc func(d time.Duration, f func()) (stop func() bool)
}

// NewClient builds a client for the tank identified by cfg.SerialNumber.
// No network traffic happens until a fetch or Start.
func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	serial := strings.ToUpper(strings.TrimSpace(cfg.SerialNumber))
	id := strings.ToLower(serial)

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	c := &Client{
		cfg:    cfg,
		serial: serial,
		id:     id,
		http:   cfg.HTTPClient,
		log:    log.For(serial),
		info: models.TankInfo{
			SerialNumber:    serial,
			ID:              id,
			FirmwareVersion: "0.0.0",
		},
		state:     models.NewTankState(),
		afterFunc: realAfterFunc,
	}
	c.observers.log = c.log
	return c
}

func realAfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// ID is the lower-case serial number used as a device identifier.
func (c *Client) ID() string { return c.id }

// SerialNumber is the upper-case serial number used for discovery.
func (c *Client) SerialNumber() string { return c.serial }

// Info returns the discovered device metadata.
func (c *Client) Info() models.TankInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// State returns a copy of the cached state.
func (c *Client) State() models.TankState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// TokenExpiry reports when the cached upstream token expires, if the token
// carries an expiry claim. Informational only; the token is never
// discarded because of it.
func (c *Client) TokenExpiry() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokenExpiry, !c.tokenExpiry.IsZero()
}

// InvalidateToken drops the cached token so the next fetch cycle logs in
// again.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) endpoints() endpoints {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.urls
}
