package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"watchdoc_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"watchdoc_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"watchdoc" description:"Database name"`

	// Application configuration
	WatchlistDir      string `long:"watchlist-dir" env:"WATCHLIST_DIR" default:"./watchlist" description:"Directory containing document watchlist files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for document scanning"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler tick interval in seconds"`
	ScanInterval      int    `long:"scan-interval" env:"SCAN_INTERVAL" default:"3600" description:"Minimum age of the latest scan before a document is rescanned, in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Browser Use comparison service
	BrowserUseAPIKey       string `long:"browser-use-api-key" env:"BROWSER_USE_API_KEY" description:"Browser Use Cloud API key"`
	BrowserUseBaseURL      string `long:"browser-use-base-url" env:"BROWSER_USE_API_BASE_URL" default:"https://api.browser-use.com/api/v1" description:"Browser Use Cloud API base URL"`
	BrowserUsePollInterval int    `long:"browser-use-poll-interval" env:"BROWSER_USE_API_POLL_INTERVAL" default:"2" description:"Browser Use task poll interval in seconds"`
	BrowserUseTimeout      int    `long:"browser-use-timeout" env:"BROWSER_USE_API_TIMEOUT" default:"120" description:"Browser Use task completion timeout in seconds"`
	BrowserUseModel        string `long:"browser-use-model" env:"BROWSER_USE_MODEL" default:"gemini-2.5-pro" description:"LLM model identifier passed to Browser Use tasks"`

	// Vapi voice alerts
	VapiAPIKey              string `long:"vapi-api-key" env:"VAPI_PRIVATE_API_KEY" description:"Vapi private API key"`
	VapiBaseURL             string `long:"vapi-base-url" env:"VAPI_BASE_URL" default:"https://api.vapi.ai" description:"Vapi API base URL"`
	VapiPhoneNumber         string `long:"vapi-phone-number" env:"VAPI_PHONE_NUMBER" description:"Phone number that receives alert calls, E.164 format"`
	VapiPhoneNumberID       string `long:"vapi-phone-number-id" env:"VAPI_PHONE_NUMBER_ID" description:"Vapi phone number ID used for outbound calls"`
	VapiCriticalAssistantID string `long:"vapi-critical-assistant-id" env:"VAPI_CRITICAL_ASSISTANT_ID" description:"Vapi assistant ID for critical change alerts"`
	VapiGeneralAssistantID  string `long:"vapi-general-assistant-id" env:"VAPI_GENERAL_ASSISTANT_ID" description:"Vapi assistant ID for conversational status updates"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36" description:"User agent string for HTTP requests"`
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
		DBHost:                  raw.DBHost,
		DBPort:                  raw.DBPort,
		DBUser:                  raw.DBUser,
		DBPassword:              raw.DBPassword,
		DBName:                  raw.DBName,
		WatchlistDir:            raw.WatchlistDir,
		Port:                    raw.Port,
		WorkerCount:             raw.WorkerCount,
		SchedulerInterval:       raw.SchedulerInterval,
		ScanInterval:            raw.ScanInterval,
		APIAccessKey:            raw.APIAccessKey,
		BrowserUseAPIKey:        raw.BrowserUseAPIKey,
		BrowserUseBaseURL:       raw.BrowserUseBaseURL,
		BrowserUsePollInterval:  raw.BrowserUsePollInterval,
		BrowserUseTimeout:       raw.BrowserUseTimeout,
		BrowserUseModel:         raw.BrowserUseModel,
		VapiAPIKey:              raw.VapiAPIKey,
		VapiBaseURL:             raw.VapiBaseURL,
		VapiPhoneNumber:         raw.VapiPhoneNumber,
		VapiPhoneNumberID:       raw.VapiPhoneNumberID,
		VapiCriticalAssistantID: raw.VapiCriticalAssistantID,
		VapiGeneralAssistantID:  raw.VapiGeneralAssistantID,
		UserAgent:               raw.UserAgent,
		Timezone:                raw.Timezone,
		Debug:                   raw.Debug,
		Version:                 GetVersion(),
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
