package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danpilch/maxfinder/internal/api/tgvmax"
	"github.com/danpilch/maxfinder/internal/trips"
)

type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
	Retries   int           `yaml:"retries"`
}

// Window is an inclusive HH:MM departure window.
type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Filter returns the window as a trip filter capped at maxDuration.
func (w Window) Filter(maxDuration time.Duration) trips.Filter {
	return trips.Filter{DepartStart: w.Start, DepartEnd: w.End, MaxDuration: maxDuration}
}

type SearchConfig struct {
	Origin      string  `yaml:"origin"`
	RangeDays   int     `yaml:"range_days"`
	Depart      Window  `yaml:"depart"`
	Return      Window  `yaml:"return"`
	MaxDuration float64 `yaml:"max_duration_hours"`
	Preview     int     `yaml:"preview"`
}

// MaxDurationValue converts the configured hour cap to a duration.
func (s SearchConfig) MaxDurationValue() time.Duration {
	return time.Duration(s.MaxDuration * float64(time.Hour))
}

// WatchConfig is a search re-run periodically by the watch command.
type WatchConfig struct {
	Name        string        `yaml:"name"`
	Mode        string        `yaml:"mode"` // single, range or round-trip
	Origin      string        `yaml:"origin"`
	Destination string        `yaml:"destination"`
	Date        string        `yaml:"date"`        // YYYY-MM-DD
	ReturnDate  string        `yaml:"return_date"` // YYYY-MM-DD
	Days        int           `yaml:"days"`
	Interval    time.Duration `yaml:"interval"`
	Weekdays    []string      `yaml:"weekdays"` // e.g., ["friday", "saturday"]
}

// SearchMode parses the configured mode name.
func (w WatchConfig) SearchMode() (trips.Mode, error) {
	return ParseMode(w.Mode)
}

// Request builds the upstream request for the watch.
func (w WatchConfig) Request() (tgvmax.Request, error) {
	mode, err := w.SearchMode()
	if err != nil {
		return tgvmax.Request{}, err
	}
	req := tgvmax.Request{
		Mode:        mode,
		Origin:      w.Origin,
		Destination: w.Destination,
		Days:        w.Days,
	}
	if req.Date, err = time.Parse("2006-01-02", w.Date); err != nil {
		return tgvmax.Request{}, fmt.Errorf("invalid date %q: %w", w.Date, err)
	}
	if mode == trips.ModeRoundTrip {
		if req.ReturnDate, err = time.Parse("2006-01-02", w.ReturnDate); err != nil {
			return tgvmax.Request{}, fmt.Errorf("invalid return_date %q: %w", w.ReturnDate, err)
		}
	}
	if mode == trips.ModeDateRange && req.Days == 0 {
		req.Days = tgvmax.DefaultRangeDays
	}
	return req, nil
}

// IsActiveDay returns true if the given weekday is in the configured weekdays.
// If none are configured, returns true (runs every day).
func (w WatchConfig) IsActiveDay(weekday time.Weekday) bool {
	if len(w.Weekdays) == 0 {
		return true
	}
	dayName := strings.ToLower(weekday.String())
	for _, d := range w.Weekdays {
		if strings.ToLower(d) == dayName {
			return true
		}
	}
	return false
}

type Config struct {
	API     APIConfig     `yaml:"api"`
	Search  SearchConfig  `yaml:"search"`
	Watches []WatchConfig `yaml:"watches"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   tgvmax.DefaultBaseURL,
			Timeout:   tgvmax.DefaultTimeout,
			CacheTTL:  tgvmax.DefaultCacheTTL,
			CacheSize: tgvmax.DefaultCacheSize,
			Retries:   tgvmax.DefaultRetries,
		},
		Search: SearchConfig{
			Origin:      "PARIS",
			RangeDays:   tgvmax.DefaultRangeDays,
			Depart:      Window{Start: "06:00", End: "23:00"},
			Return:      Window{Start: "06:00", End: "23:00"},
			MaxDuration: 12,
			Preview:     trips.DefaultPreview,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	for i := range cfg.Watches {
		if cfg.Watches[i].Interval == 0 {
			cfg.Watches[i].Interval = 30 * time.Minute
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api: base_url is required")
	}
	if c.Search.RangeDays < 1 || c.Search.RangeDays > tgvmax.MaxRangeDays {
		return fmt.Errorf("search: range_days must be between 1 and %d", tgvmax.MaxRangeDays)
	}
	if c.Search.MaxDuration < 0 {
		return fmt.Errorf("search: max_duration_hours must not be negative")
	}
	if err := c.Search.Depart.Validate(); err != nil {
		return fmt.Errorf("search.depart: %w", err)
	}
	if err := c.Search.Return.Validate(); err != nil {
		return fmt.Errorf("search.return: %w", err)
	}

	seen := make(map[string]bool)
	for i, w := range c.Watches {
		if w.Name == "" {
			return fmt.Errorf("watches[%d]: name is required", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("watches[%d]: duplicate name %q", i, w.Name)
		}
		seen[w.Name] = true

		req, err := w.Request()
		if err != nil {
			return fmt.Errorf("watch %s: %w", w.Name, err)
		}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("watch %s: %w", w.Name, err)
		}
		if w.Interval < time.Minute {
			return fmt.Errorf("watch %s: interval must be at least 1m", w.Name)
		}
	}

	return nil
}

// Validate checks both bounds are HH:MM and ordered.
func (w Window) Validate() error {
	for _, s := range []string{w.Start, w.End} {
		if s == "" {
			continue
		}
		if _, err := time.Parse("15:04", s); err != nil || len(s) != 5 {
			return fmt.Errorf("invalid time %q, expected HH:MM", s)
		}
	}
	if w.Start != "" && w.End != "" && w.Start > w.End {
		return fmt.Errorf("start %s is after end %s", w.Start, w.End)
	}
	return nil
}

// ParseMode maps a CLI or config mode name to a search mode.
func ParseMode(s string) (trips.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return trips.ModeSingle, nil
	case "range", "date-range":
		return trips.ModeDateRange, nil
	case "round-trip", "roundtrip":
		return trips.ModeRoundTrip, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
