package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel        = "warn"
	DefaultJSONLog         = false
	DefaultEnvFile         = ".env"
	DefaultBaseURL         = "https://www.mubawab.ma/fr/ct/rabat/immobilier-a-vendre"
	DefaultOrigin          = "https://www.mubawab.ma"
	DefaultMaxPages        = 37
	DefaultWarmupPages     = 5
	DefaultListingDelayMin = 3 * time.Second
	DefaultListingDelayMax = 7 * time.Second
	DefaultDetailDelayMin  = 5 * time.Second
	DefaultDetailDelayMax  = 10 * time.Second
	DefaultRateLimitRPS    = 1.0
	DefaultRateLimitBurst  = 1
	DefaultHTTPTimeout     = 10 * time.Second
	DefaultRetries         = 1
	DefaultRetryBackoff    = 2 * time.Second
	DefaultWorkers         = 1
	DefaultMaxWorkers      = 4
	DefaultFlushEvery      = 1
	DefaultLinksFile       = "mubawab_links.csv"
	DefaultOutputFile      = "mubawab_data.csv"
	DefaultAmenityStyle    = "oui-non"
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultAcceptLanguage  = "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7"
	DefaultPostgresTable   = "property_records"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "IMMOCRAWL_"
