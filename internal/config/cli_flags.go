package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	pf.Bool("json", false, "Log in JSON format")
	pf.String("env-file", DefaultEnvFile, "Path to a .env file (optional)")

	pf.String("base-url", DefaultBaseURL, "Listing index URL, page suffix is appended")
	pf.String("origin", DefaultOrigin, "Site origin listing links are resolved against")
	pf.IntP("max-pages", "p", DefaultMaxPages, "Maximum number of index pages to visit")
	pf.Int("warmup", DefaultWarmupPages, "Pages visited before early stop may apply")
	pf.Bool("fresh", false, "Ignore the existing link snapshot when discovering")

	pf.Duration("listing-delay-min", DefaultListingDelayMin, "Minimum pause before an index page request")
	pf.Duration("listing-delay-max", DefaultListingDelayMax, "Maximum pause before an index page request")
	pf.Duration("detail-delay-min", DefaultDetailDelayMin, "Minimum pause before a detail page request")
	pf.Duration("detail-delay-max", DefaultDetailDelayMax, "Maximum pause before a detail page request")
	pf.Float64("rate", DefaultRateLimitRPS, "Requests per second allowed per host across workers")
	pf.Int("burst", DefaultRateLimitBurst, "Per-host request burst")

	pf.Duration("timeout", DefaultHTTPTimeout, "Timeout of a single request")
	pf.Int("retries", DefaultRetries, "Extra attempts for a request that timed out or got 429/5xx")
	pf.String("user-agent", DefaultUserAgent, "User agent string")
	pf.String("accept-language", DefaultAcceptLanguage, "Accept-Language header")
	pf.StringSlice("proxy", nil, "HTTP/SOCKS5 proxy, repeat or comma-separate to rotate")
	pf.StringArrayP("header", "H", nil, "Extra request header (\"Key: Value\"), repeatable")

	pf.IntP("workers", "w", DefaultWorkers, "Concurrent detail fetchers (1-4)")
	pf.Int("flush-every", DefaultFlushEvery, "Records written between disk syncs")
	pf.String("amenities", DefaultAmenityStyle, "Amenity flag style: oui-non or binary")
	pf.String("links-file", DefaultLinksFile, "Link snapshot file")
	pf.StringP("output", "o", DefaultOutputFile, "Detail records CSV file")

	pf.String("pg-dsn", "", "Also insert records into Postgres at this DSN")
	pf.String("pg-table", DefaultPostgresTable, "Postgres table for records")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}
