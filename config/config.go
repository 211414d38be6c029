package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFile       = "file"
	BackendCloudinary = "cloudinary"
	BackendGitHub     = "github"
	BackendMongo      = "mongo"
	BackendSQLite     = "sqlite"
	BackendMemory     = "memory"
)

var backends = []string{BackendFile, BackendCloudinary, BackendGitHub, BackendMongo, BackendSQLite, BackendMemory}

type Config struct {
	// HTTP
	Port              string
	GinMode           string
	CORSOrigins       []string
	JWTSecret         string
	EnableDebugRoutes bool

	// Logging
	LogLevel  string
	LogFormat string

	// Storage
	Backend      string
	StoreTimeout time.Duration
	DataFile     string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryPublicID  string

	GitHubToken  string
	GitHubOwner  string
	GitHubRepo   string
	GitHubPath   string
	GitHubBranch string

	MongoURI        string
	DBName          string
	MongoCollection string
	DocumentID      string

	SQLitePath string

	// Notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	ZeptoAPIURL   string
	ZeptoAPIKey   string
	EmailFrom     string
	NotifyEmailTo string
	EmailToName   string
}

// Load reads .env (if present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		Port:              getEnv("PORT", "3000"),
		GinMode:           getEnv("GIN_MODE", "release"),
		CORSOrigins:       getEnvList("CORS_ORIGINS"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		EnableDebugRoutes: getEnvBool("ENABLE_DEBUG_ROUTES", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		DataFile:     getEnv("DATA_FILE", "public/js/data.json"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryPublicID:  getEnv("CLOUDINARY_PUBLIC_ID", "chama/data.json"),

		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubOwner:  os.Getenv("GITHUB_OWNER"),
		GitHubRepo:   os.Getenv("GITHUB_REPO"),
		GitHubPath:   getEnv("GITHUB_PATH", "public/js/data.json"),
		GitHubBranch: getEnv("GITHUB_BRANCH", "main"),

		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("MONGO_DB", "chama"),
		MongoCollection: getEnv("MONGO_COLLECTION", "documents"),
		DocumentID:      getEnv("DOCUMENT_ID", "data"),

		SQLitePath: getEnv("SQLITE_PATH", "./data/chama.db"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "chama"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		ZeptoAPIURL:   os.Getenv("ZEPTO_API_URL"),
		ZeptoAPIKey:   os.Getenv("ZEPTO_API_KEY"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		NotifyEmailTo: os.Getenv("NOTIFY_EMAIL_TO"),
		EmailToName:   getEnv("EMAIL_TO_NAME", "Treasurer"),
	}
}

// EmailEnabled reports whether every ZeptoMail setting is present.
func (c *Config) EmailEnabled() bool {
	return c.ZeptoAPIURL != "" && c.ZeptoAPIKey != "" && c.EmailFrom != "" && c.NotifyEmailTo != ""
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	valid := false
	for _, b := range backends {
		if c.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		problems = append(problems, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.Backend, backends))
	}

	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			problems = append(problems, "DATA_FILE is required for the file backend")
		}
	case BackendCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			problems = append(problems, "CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary backend")
		}
	case BackendGitHub:
		if c.GitHubToken == "" || c.GitHubOwner == "" || c.GitHubRepo == "" {
			problems = append(problems, "GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO are required for the github backend")
		}
	case BackendMongo:
		if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
			problems = append(problems, fmt.Sprintf("invalid MONGO_URI '%s'", c.MongoURI))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite backend")
		}
	}

	if c.StoreTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid store timeout %v: must be positive", c.StoreTimeout))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
