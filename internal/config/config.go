package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits comma-separated values
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.  The struct is built once at startup and passed explicitly to
// the components that need it; there are no package-level singletons.
type Config struct {
	Env            string   // application environment (e.g. "dev", "prod")
	Port           string   // HTTP port to listen on
	DBUser         string   // database username
	DBPass         string   // database password (optional)
	DBHost         string   // database host address
	DBPort         string   // database port number
	DBName         string   // database name
	DBMaxOpen      int      // max open connections in the pool
	DBMaxIdle      int      // max idle connections in the pool
	DBConnLifeMin  int      // connection max lifetime in minutes
	JWTSecret      string   // secret used to sign JWTs
	AccessTTLMin   int      // access token time-to-live in minutes
	RefreshTTLDays int      // refresh token time-to-live in days
	BcryptCost     int      // bcrypt cost for password hashing
	FrontendURL    string   // base URL used in verification/reset links
	CORSOrigins    []string // allowed CORS origins
	SMTP           SMTPConfig
}

// SMTPConfig carries the outbound mail settings.  When Host is empty the
// mailer is disabled and email dispatch becomes a no-op; quote submission
// must keep working without a mail relay.
type SMTPConfig struct {
	Host string // SMTP relay host; empty disables outbound mail
	Port int    // SMTP relay port
	User string // SMTP auth username
	Pass string // SMTP auth password
	From string // From address for all transactional mail
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),      // environment (dev/test/prod)
		Port:           must("APP_PORT"),     // port to bind the HTTP server
		DBUser:         must("DB_USER"),      // database user
		DBPass:         os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:         must("DB_HOST"),      // database host
		DBPort:         must("DB_PORT"),      // database port
		DBName:         must("DB_NAME"),      // database name
		DBMaxOpen:      envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:      envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnLifeMin:  envInt("DB_CONN_LIFETIME_MIN", 30),
		JWTSecret:      must("JWT_SECRET"),                // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),            // bcrypt cost factor
		FrontendURL:    envStr("FRONTEND_URL", "http://localhost:3000"),
		CORSOrigins:    splitCSV(envStr("CORS_ORIGINS", "*")),
		SMTP: SMTPConfig{
			Host: os.Getenv("EMAIL_HOST"), // empty host disables the mailer
			Port: envInt("EMAIL_PORT", 587),
			User: os.Getenv("EMAIL_USER"),
			Pass: os.Getenv("EMAIL_PASS"),
			From: envStr("EMAIL_FROM", "no-reply@localhost"),
		},
	}
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

// envStr returns the value of an optional environment variable or a default.
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns an optional integer environment variable or a default.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// splitCSV splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
