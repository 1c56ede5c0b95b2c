package config

import (
	"fmt"     // For error formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort        string        // Application port
	IsProd         bool          // Is production environment
	LogLevel       string        // logrus level name
	TrustedProxies []string      // Proxies gin trusts for client IPs
	DBDriver       string        // mysql, postgres or sqlite
	DBUser         string        // Database user
	DBPassword     string        // Database password
	DBHost         string        // Database host
	DBPort         string        // Database port
	DBName         string        // Database name
	DBSSLMode      string        // Postgres sslmode
	DBPath         string        // SQLite file path
	JWTSecret      string        // JWT secret key
	JWTTTL         time.Duration // Lifetime of issued tokens
	RedisAddr      string        // Redis server address, empty disables caching
	RedisPass      string        // Redis password
	RedisDB        int           // Redis database number
	CacheTTL       time.Duration // Lifetime of cached responses
	RateLimitRPS   float64       // Sustained requests per second per client on limited routes
	RateLimitBurst int           // Burst size per client on limited routes
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "8080"),                                      // Application port
		IsProd:         os.Getenv("IS_PROD") == "true",                                  // Is production environment
		LogLevel:       getEnv("LOG_LEVEL", "info"),                                     // Log level
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "127.0.0.1")),               // Trusted proxies
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),               // Database driver
		DBUser:         os.Getenv("DB_USER"),                                            // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),                                        // Database password
		DBHost:         getEnv("DB_HOST", "localhost"),                                  // Database host
		DBPort:         os.Getenv("DB_PORT"),                                            // Database port
		DBName:         getEnv("DB_NAME", "loyalty_points"),                             // Database name
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),                                 // Postgres sslmode
		DBPath:         getEnv("DB_PATH", "loyalty_points.db"),                          // SQLite file
		JWTSecret:      os.Getenv("JWT_SECRET"),                                         // JWT secret key
		JWTTTL:         time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,       // Token lifetime
		RedisAddr:      os.Getenv("REDIS_ADDR"),                                         // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),                                         // Redis password
		RedisDB:        getEnvInt("REDIS_DB", 0),                                        // Redis database number
		CacheTTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second, // Cache lifetime
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),                                // Requests per second
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),                               // Burst size
	}
	if cfg.DBPort == "" {
		cfg.DBPort = defaultPort(cfg.DBDriver) // Pick the driver's usual port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can run the server
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProd && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// DSN builds the Data Source Name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
	case DriverSQLite:
		return "file:" + c.DBPath + "?_foreign_keys=1"
	default:
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
	}
}

func defaultPort(driver string) string {
	switch driver {
	case DriverPostgres:
		return "5432"
	case DriverMySQL:
		return "3306"
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
