package cfg

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version == "" {
		return "unknown"
	}
	return Version
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/jobsift.db" description:"Path to the SQLite database file"`

	// Application configuration
	PolicyDir          string `long:"policy-dir" env:"POLICY_DIR" default:"./policy" description:"Directory containing policy YAML files (blacklists, salary tables)"`
	Port               string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey       string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`
	SchedulerInterval  int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Sweep interval in seconds for enqueueing due sources"`
	StuckTaskTimeout   int    `long:"stuck-task-timeout" env:"STUCK_TASK_TIMEOUT" default:"30" description:"Minutes after which a PROCESSING task is considered stuck"`
	AuditRetentionDays int    `long:"audit-retention-days" env:"AUDIT_RETENTION_DAYS" default:"20" description:"Days to keep import logs and their child audit records"`

	// Upstream configuration
	ATSEndpoint      string `long:"ats-endpoint" env:"ATS_ENDPOINT" default:"https://boards-api.greenhouse.io/v1/boards" description:"Base URL of the ATS postings API"`
	ActorEndpoint    string `long:"actor-endpoint" env:"ACTOR_ENDPOINT" default:"https://api.apify.com/v2" description:"Base URL of the scraping actor API"`
	ActorToken       string `long:"actor-token" env:"ACTOR_TOKEN" description:"API token for the scraping actor (social sources disabled when empty)"`
	DiscoveryURL     string `long:"discovery-url" env:"DISCOVERY_URL" default:"https://duckduckgo.com/html/" description:"Search surface crawled by the discovery service"`
	RequestTimeout   int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Upstream HTTP request timeout in seconds"`
	InterSourceDelay int    `long:"inter-source-delay" env:"INTER_SOURCE_DELAY" default:"5" description:"Seconds to wait between sources during bulk runs"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"JobSift/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		PolicyDir:          raw.PolicyDir,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		SchedulerInterval:  raw.SchedulerInterval,
		StuckTaskTimeout:   raw.StuckTaskTimeout,
		AuditRetentionDays: raw.AuditRetentionDays,
		ATSEndpoint:        raw.ATSEndpoint,
		ActorEndpoint:      raw.ActorEndpoint,
		ActorToken:         raw.ActorToken,
		DiscoveryURL:       raw.DiscoveryURL,
		RequestTimeout:     raw.RequestTimeout,
		InterSourceDelay:   raw.InterSourceDelay,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
