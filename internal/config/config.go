// Package config defines opsboard configuration and its loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load(ctx) layers defaults, an optional YAML file and OPSBOARD_* env vars.
//   - Errors returned from this package wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Join policies accepted by JoinPolicy.
const (
	JoinPolicyFirstSeen = "first_seen"
	JoinPolicyFanOut    = "fan_out"
)

// Log formats accepted by LogFormat.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const maxTopProblemsLimit = 1000

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Title is shown as the dashboard heading.
	Title string `koanf:"title"`

	// TransactionsPath points at the transaction CSV.
	TransactionsPath string `koanf:"transactions_path"`

	// TicketsPath points at the support ticket CSV.
	TicketsPath string `koanf:"tickets_path"`

	// TopProblemsLimit caps the problem transaction table.
	TopProblemsLimit int `koanf:"top_problems_limit"`

	// JoinPolicy decides how tickets of customers with several categories resolve.
	JoinPolicy string `koanf:"join_policy"`

	// WatchFiles invalidates cached datasets when the CSV files change on disk.
	WatchFiles bool `koanf:"watch_files"`

	// WatchDebounceMS coalesces bursts of file events.
	WatchDebounceMS int `koanf:"watch_debounce_ms"`

	// WarmCache loads the datasets during startup instead of on first render.
	WarmCache bool `koanf:"warm_cache"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshMS is how often process gauges are refreshed.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`

	// MetricsLabels are constant labels added to every metric, e.g. instance.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsBucketsMS overrides the latency histogram buckets, in milliseconds.
	MetricsBucketsMS []float64 `koanf:"metrics_buckets_ms"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        LogFormatText,
		Addr:             ":9080",
		Title:            "NordTech Business Operations Panel",
		TransactionsPath: "enriched_data.csv",
		TicketsPath:      "tickets_cleaned.csv",
		TopProblemsLimit: 10,
		JoinPolicy:       JoinPolicyFirstSeen,
		WatchFiles:       true,
		WatchDebounceMS:  250,
		WarmCache:        true,
		MetricsEnabled:   true,
		MetricsRefreshMS: 10000,
	}
}

// WatchDebounce returns WatchDebounceMS as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr must not be empty")
	}
	if strings.TrimSpace(c.TransactionsPath) == "" {
		problems = append(problems, "transactions_path must not be empty")
	}
	if strings.TrimSpace(c.TicketsPath) == "" {
		problems = append(problems, "tickets_path must not be empty")
	}
	if c.TopProblemsLimit < 1 || c.TopProblemsLimit > maxTopProblemsLimit {
		problems = append(problems, fmt.Sprintf("top_problems_limit %d must be between 1 and %d", c.TopProblemsLimit, maxTopProblemsLimit))
	}
	switch c.JoinPolicy {
	case JoinPolicyFirstSeen, JoinPolicyFanOut:
	default:
		problems = append(problems, fmt.Sprintf("join_policy %q must be %q or %q", c.JoinPolicy, JoinPolicyFirstSeen, JoinPolicyFanOut))
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("log_format %q must be %q or %q", c.LogFormat, LogFormatText, LogFormatJSON))
	}
	if c.WatchDebounceMS < 0 {
		problems = append(problems, fmt.Sprintf("watch_debounce_ms %d must not be negative", c.WatchDebounceMS))
	}

	if c.MetricsRefreshMS <= 0 {
		problems = append(problems, fmt.Sprintf("metrics_refresh_ms %d must be positive", c.MetricsRefreshMS))
	}
	for i := 1; i < len(c.MetricsBucketsMS); i++ {
		if c.MetricsBucketsMS[i] <= c.MetricsBucketsMS[i-1] {
			problems = append(problems, "metrics_buckets_ms must be strictly increasing")
			break
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalidConfig, strings.Join(problems, "\n- "))
	}
	return nil
}
