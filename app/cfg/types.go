package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	WatchlistDir      string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	ScanInterval      int
	APIAccessKey      string

	// Browser Use comparison service
	BrowserUseAPIKey       string
	BrowserUseBaseURL      string
	BrowserUsePollInterval int
	BrowserUseTimeout      int
	BrowserUseModel        string

	// Vapi voice alerts
	VapiAPIKey              string
	VapiBaseURL             string
	VapiPhoneNumber         string
	VapiPhoneNumberID       string
	VapiCriticalAssistantID string
	VapiGeneralAssistantID  string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
