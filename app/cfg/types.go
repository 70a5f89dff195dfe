package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	PolicyDir          string
	Port               string
	APIAccessKey       string
	SchedulerInterval  int
	StuckTaskTimeout   int
	AuditRetentionDays int

	// Upstream configuration
	ATSEndpoint      string
	ActorEndpoint    string
	ActorToken       string
	DiscoveryURL     string
	RequestTimeout   int
	InterSourceDelay int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
