package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Cache configuration
	RedisAddr string

	// ATProto configuration
	PDSUrl string
	PLCUrl string

	// Session configuration
	JWTSecret  string
	SessionTTL int
	AdminKey   string

	// Application configuration
	LexiconsDir       string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
