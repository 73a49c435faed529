package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/law-makers/immocrawl/internal/utils/headers"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Discovery
	BaseURL     string
	Origin      string
	MaxPages    int
	WarmupPages int
	Fresh       bool

	// Politeness
	ListingDelayMin time.Duration
	ListingDelayMax time.Duration
	DetailDelayMin  time.Duration
	DetailDelayMax  time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int

	// HTTP
	HTTPTimeout    time.Duration
	Retries        int
	RetryBackoff   time.Duration
	UserAgent      string
	AcceptLanguage string
	Proxies        []string
	Headers        map[string]string

	// Ingestion
	Workers      int
	FlushEvery   int
	AmenityStyle string

	// Files
	LinksFile  string
	OutputFile string

	// Postgres sink, disabled when DSN is empty
	PostgresDSN   string
	PostgresTable string

	// Prometheus endpoint, disabled when empty
	MetricsAddr string
}

// Default returns a Config holding the built-in defaults
func Default() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		BaseURL:         DefaultBaseURL,
		Origin:          DefaultOrigin,
		MaxPages:        DefaultMaxPages,
		WarmupPages:     DefaultWarmupPages,
		ListingDelayMin: DefaultListingDelayMin,
		ListingDelayMax: DefaultListingDelayMax,
		DetailDelayMin:  DefaultDetailDelayMin,
		DetailDelayMax:  DefaultDetailDelayMax,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		HTTPTimeout:     DefaultHTTPTimeout,
		Retries:         DefaultRetries,
		RetryBackoff:    DefaultRetryBackoff,
		UserAgent:       DefaultUserAgent,
		AcceptLanguage:  DefaultAcceptLanguage,
		Headers:         map[string]string{},
		Workers:         DefaultWorkers,
		FlushEvery:      DefaultFlushEvery,
		AmenityStyle:    DefaultAmenityStyle,
		LinksFile:       DefaultLinksFile,
		OutputFile:      DefaultOutputFile,
		PostgresTable:   DefaultPostgresTable,
	}
}

// Load builds a Config by combining defaults, an optional .env file, IMMOCRAWL_*
// environment variables, and CLI flags, in increasing order of precedence.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	envFile, explicit := DefaultEnvFile, false
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil && f.Changed {
			envFile, explicit = f.Value.String(), true
		}
	}
	// a missing default .env is not an error
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, cmd); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// envReader collects the first parse error so callers can read many keys in a row
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.lookup(EnvPrefix + key); ok && v != "" {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	r.parse(key, func(v string) error {
		n, err := strconv.Atoi(v)
		*dst = n
		return err
	})
}

func (r *envReader) float(key string, dst *float64) {
	r.parse(key, func(v string) error {
		n, err := strconv.ParseFloat(v, 64)
		*dst = n
		return err
	})
}

func (r *envReader) boolean(key string, dst *bool) {
	r.parse(key, func(v string) error {
		b, err := strconv.ParseBool(v)
		*dst = b
		return err
	})
}

func (r *envReader) duration(key string, dst *time.Duration) {
	r.parse(key, func(v string) error {
		d, err := time.ParseDuration(v)
		*dst = d
		return err
	})
}

func (r *envReader) parse(key string, set func(string) error) {
	if r.err != nil {
		return
	}
	v, ok := r.lookup(EnvPrefix + key)
	if !ok || v == "" {
		return
	}
	if err := set(strings.TrimSpace(v)); err != nil {
		r.err = fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	r := &envReader{lookup: lookup}

	r.str("LOG_LEVEL", &cfg.LogLevel)
	r.boolean("JSON_LOG", &cfg.JSONLog)
	r.str("BASE_URL", &cfg.BaseURL)
	r.str("ORIGIN", &cfg.Origin)
	r.integer("MAX_PAGES", &cfg.MaxPages)
	r.integer("WARMUP_PAGES", &cfg.WarmupPages)
	r.duration("LISTING_DELAY_MIN", &cfg.ListingDelayMin)
	r.duration("LISTING_DELAY_MAX", &cfg.ListingDelayMax)
	r.duration("DETAIL_DELAY_MIN", &cfg.DetailDelayMin)
	r.duration("DETAIL_DELAY_MAX", &cfg.DetailDelayMax)
	r.float("RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	r.integer("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	r.duration("HTTP_TIMEOUT", &cfg.HTTPTimeout)
	r.integer("RETRIES", &cfg.Retries)
	r.duration("RETRY_BACKOFF", &cfg.RetryBackoff)
	r.str("USER_AGENT", &cfg.UserAgent)
	r.str("ACCEPT_LANGUAGE", &cfg.AcceptLanguage)
	r.integer("WORKERS", &cfg.Workers)
	r.integer("FLUSH_EVERY", &cfg.FlushEvery)
	r.str("AMENITY_STYLE", &cfg.AmenityStyle)
	r.str("LINKS_FILE", &cfg.LinksFile)
	r.str("OUTPUT_FILE", &cfg.OutputFile)
	r.str("PG_DSN", &cfg.PostgresDSN)
	r.str("PG_TABLE", &cfg.PostgresTable)
	r.str("METRICS_ADDR", &cfg.MetricsAddr)


	var proxies, hdrs string
	r.str("PROXIES", &proxies)
	r.str("HEADERS", &hdrs)
	if r.err != nil {
		return r.err
	}

	if proxies != "" {
		cfg.Proxies = splitComma(proxies)
	}
	if hdrs != "" {
		parsed, err := headers.Parse(headers.SplitList(hdrs))
		if err != nil {
			return fmt.Errorf("invalid %sHEADERS: %w", EnvPrefix, err)
		}
		for k, v := range parsed {
			cfg.Headers[k] = v
		}
	}
	return nil
}

func applyFlags(cfg *Config, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	set := func(name string, apply func() error) {
		if err == nil && changed(name) {
			if e := apply(); e != nil {
				err = fmt.Errorf("flag --%s: %w", name, e)
			}
		}
	}

	set("log-level", func() (e error) { cfg.LogLevel, e = flags.GetString("log-level"); return })
	set("json", func() (e error) { cfg.JSONLog, e = flags.GetBool("json"); return })
	set("base-url", func() (e error) { cfg.BaseURL, e = flags.GetString("base-url"); return })
	set("origin", func() (e error) { cfg.Origin, e = flags.GetString("origin"); return })
	set("max-pages", func() (e error) { cfg.MaxPages, e = flags.GetInt("max-pages"); return })
	set("warmup", func() (e error) { cfg.WarmupPages, e = flags.GetInt("warmup"); return })
	set("fresh", func() (e error) { cfg.Fresh, e = flags.GetBool("fresh"); return })
	set("listing-delay-min", func() (e error) { cfg.ListingDelayMin, e = flags.GetDuration("listing-delay-min"); return })
	set("listing-delay-max", func() (e error) { cfg.ListingDelayMax, e = flags.GetDuration("listing-delay-max"); return })
	set("detail-delay-min", func() (e error) { cfg.DetailDelayMin, e = flags.GetDuration("detail-delay-min"); return })
	set("detail-delay-max", func() (e error) { cfg.DetailDelayMax, e = flags.GetDuration("detail-delay-max"); return })
	set("rate", func() (e error) { cfg.RateLimitRPS, e = flags.GetFloat64("rate"); return })
	set("burst", func() (e error) { cfg.RateLimitBurst, e = flags.GetInt("burst"); return })
	set("timeout", func() (e error) { cfg.HTTPTimeout, e = flags.GetDuration("timeout"); return })
	set("retries", func() (e error) { cfg.Retries, e = flags.GetInt("retries"); return })
	set("user-agent", func() (e error) { cfg.UserAgent, e = flags.GetString("user-agent"); return })
	set("accept-language", func() (e error) { cfg.AcceptLanguage, e = flags.GetString("accept-language"); return })
	set("proxy", func() (e error) { cfg.Proxies, e = flags.GetStringSlice("proxy"); return })
	set("workers", func() (e error) { cfg.Workers, e = flags.GetInt("workers"); return })
	set("flush-every", func() (e error) { cfg.FlushEvery, e = flags.GetInt("flush-every"); return })
	set("amenities", func() (e error) { cfg.AmenityStyle, e = flags.GetString("amenities"); return })
	set("links-file", func() (e error) { cfg.LinksFile, e = flags.GetString("links-file"); return })
	set("output", func() (e error) { cfg.OutputFile, e = flags.GetString("output"); return })
	set("pg-dsn", func() (e error) { cfg.PostgresDSN, e = flags.GetString("pg-dsn"); return })
	set("pg-table", func() (e error) { cfg.PostgresTable, e = flags.GetString("pg-table"); return })
	set("metrics-addr", func() (e error) { cfg.MetricsAddr, e = flags.GetString("metrics-addr"); return })
	set("header", func() error {
		raw, e := flags.GetStringArray("header")
		if e != nil {
			return e
		}
		parsed, e := headers.Parse(raw)
		if e != nil {
			return e
		}
		for k, v := range parsed {
			cfg.Headers[k] = v
		}
		return nil
	})
	if err != nil {
		return err
	}

	// verbosity flags win over any configured level
	if v, _ := flags.GetBool("verbose"); v {
		cfg.LogLevel = "debug"
	}
	if q, _ := flags.GetBool("quiet"); q {
		cfg.LogLevel = "error"
	}
	return nil
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
