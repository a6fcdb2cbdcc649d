package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for costs and
// durations for timeouts.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	StoreDriver   string        // "mysql" (default) or "memory"
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	DBAutoMigrate bool          // apply the embedded schema at startup
	JWTSecret     string        // secret used to sign JWTs
	AccessTTLMin  int           // access token time-to-live in minutes
	BcryptCost    int           // bcrypt cost for password hashing
	AuditTimeout  time.Duration // upper bound for one audit write
	RabbitMQURL   string        // AMQP url; empty disables notifications
	LogLevel      string        // debug, info, warn or error
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when
// present; real environment variables win over it.  Required variables are
// enforced by must() and missing values cause the program to exit with a
// fatal log message.  Database settings are only required for the mysql
// store driver.
func Load() Config {
	_ = godotenv.Load() // optional; absent file is fine

	cfg := Config{
		Env:          must("APP_ENV"),  // environment (dev/test/prod)
		Port:         must("APP_PORT"), // port to bind the HTTP server
		StoreDriver:  envStr("STORE_DRIVER", StoreMySQL),
		JWTSecret:    must("JWT_SECRET"),             // secret used for signing JWTs
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for access tokens in minutes
		BcryptCost:   mustInt("BCRYPT_COST"),          // bcrypt cost factor
		AuditTimeout: envDur("AUDIT_TIMEOUT", 2*time.Second),
		RabbitMQURL:  os.Getenv("RABBITMQ_URL"),
		LogLevel:     envStr("LOG_LEVEL", "info"),
	}
	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
		cfg.DBAutoMigrate = envBool("DB_AUTO_MIGRATE", false)
	case StoreMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
