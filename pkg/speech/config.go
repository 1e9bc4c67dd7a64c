package speech

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gudong621/readaloud/pkg/configutil"
	"github.com/gudong621/readaloud/pkg/metrics"
)

// Config carries everything a Client needs. The zero value works; the
// applyDefaults step fills in the production endpoint and timeouts.
type Config struct {
	// Endpoint is the wss base URL without query parameters.
	Endpoint string
	// VoiceListURL is the HTTPS voice catalogue endpoint.
	VoiceListURL string
	// OutputFormat names the audio encoding requested per connection.
	OutputFormat string
	// SynthesisTimeout bounds how long one request may wait for its
	// terminal frame before the caller is rejected.
	SynthesisTimeout time.Duration
	// DialTimeout bounds the websocket handshake.
	DialTimeout time.Duration

	VoicesRetries      int
	VoicesRetryBackoff time.Duration

	// BreakerThreshold rate-limited dials in a row open the circuit
	// for BreakerCooldown before a fresh handshake is attempted.
	BreakerThreshold int
	BreakerCooldown  time.Duration

	Logger  *slog.Logger
	Metrics metrics.Observer
}

func (c Config) applyDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.VoiceListURL == "" {
		c.VoiceListURL = voiceListEndpoint
	}
	if c.OutputFormat == "" {
		c.OutputFormat = defaultOutputFormat
	}
	if c.SynthesisTimeout <= 0 {
		c.SynthesisTimeout = 30 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.VoicesRetries <= 0 {
		c.VoicesRetries = 2
	}
	if c.VoicesRetryBackoff <= 0 {
		c.VoicesRetryBackoff = 200 * time.Millisecond
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NoopObserver{}
	}
	return c
}

type settings struct {
	Endpoint           string `mapstructure:"endpoint"`
	OutputFormat       string `mapstructure:"output_format"`
	SynthesisTimeoutMS int    `mapstructure:"synthesis_timeout_ms"`
	DialTimeoutMS      int    `mapstructure:"dial_timeout_ms"`
	VoicesRetries      int    `mapstructure:"voices_retries"`
	BreakerThreshold   int    `mapstructure:"breaker_threshold"`
	BreakerCooldownMS  int    `mapstructure:"breaker_cooldown_ms"`
}

var settingsSchema = configutil.Schema{
	Optional: []string{
		"endpoint",
		"output_format",
		"synthesis_timeout_ms",
		"dial_timeout_ms",
		"voices_retries",
		"breaker_threshold",
		"breaker_cooldown_ms",
	},
}

// FromSettings builds a Config from a free-form settings map, the way
// vendor blocks are written in application config files.
func FromSettings(input map[string]any) (Config, error) {
	if err := configutil.ValidateSettings(input, settingsSchema); err != nil {
		return Config{}, fmt.Errorf("speech settings: %w", err)
	}
	var s settings
	if err := configutil.DecodeSettings(input, &s); err != nil {
		return Config{}, fmt.Errorf("speech settings: %w", err)
	}
	cfg := Config{
		Endpoint:         s.Endpoint,
		OutputFormat:     s.OutputFormat,
		SynthesisTimeout: time.Duration(s.SynthesisTimeoutMS) * time.Millisecond,
		DialTimeout:      time.Duration(s.DialTimeoutMS) * time.Millisecond,
		VoicesRetries:    s.VoicesRetries,
		BreakerThreshold: s.BreakerThreshold,
		BreakerCooldown:  time.Duration(s.BreakerCooldownMS) * time.Millisecond,
	}
	return cfg, nil
}
