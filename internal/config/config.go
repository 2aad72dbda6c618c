package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// bcrypt cost bounds, mirroring golang.org/x/crypto/bcrypt.
const (
	minBcryptCost = 4
	maxBcryptCost = 31
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config centralises runtime configuration.
type Config struct {
	HTTPPort        string
	StorageDriver   string
	DatabaseURL     string
	AllowedOrigins  []string
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	LogLevel        slog.Level

	JWTIssuer          string
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	BcryptCost         int

	LoginRateLimit  int
	LoginRateWindow time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

// Load reads configuration from the environment, seeded from .env when present.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only. Every
// missing or malformed required setting is reported at once.
func FromEnv() (Config, error) {
	httpPort := getEnv("HTTP_PORT", "")
	if httpPort == "" {
		httpPort = getEnv("PORT", "3000")
	}

	var problems []error
	intEnv := func(key string, fallback int) int {
		n, err := getIntEnv(key, fallback)
		if err != nil {
			problems = append(problems, err)
		}
		return n
	}
	durationEnv := func(key string, fallback time.Duration) time.Duration {
		d, err := getDurationEnv(key, fallback)
		if err != nil {
			problems = append(problems, err)
		}
		return d
	}

	cfg := Config{
		HTTPPort:        httpPort,
		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		AllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeoutSec:  intEnv("HTTP_READ_TIMEOUT", 15),
		WriteTimeoutSec: intEnv("HTTP_WRITE_TIMEOUT", 15),
		IdleTimeoutSec:  intEnv("HTTP_IDLE_TIMEOUT", 60),
		LogLevel:        parseLevel(getEnv("LOG_LEVEL", "info")),

		JWTIssuer:          getEnv("JWT_ISSUER", "userauth"),
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		BcryptCost:         intEnv("BCRYPT_COST", 10),

		LoginRateLimit:  intEnv("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: durationEnv("LOGIN_RATE_WINDOW", time.Minute),
		RedisAddr:       getEnv("RATE_LIMIT_REDIS_ADDR", ""),
		RedisPassword:   getEnv("RATE_LIMIT_REDIS_PASSWORD", ""),
		RedisDB:         intEnv("RATE_LIMIT_REDIS_DB", 0),
	}

	require := func(key, value string) {
		if value == "" {
			problems = append(problems, fmt.Errorf("%s is required", key))
		}
	}
	expiry := func(key string) time.Duration {
		raw := getEnv(key, "")
		if raw == "" {
			problems = append(problems, fmt.Errorf("%s is required", key))
			return 0
		}
		d, err := ParseExpiry(raw)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	require("ACCESS_TOKEN_SECRET", cfg.AccessTokenSecret)
	cfg.AccessTokenExpiry = expiry("ACCESS_TOKEN_EXPIRES_IN")
	require("REFRESH_TOKEN_SECRET", cfg.RefreshTokenSecret)
	cfg.RefreshTokenExpiry = expiry("REFRESH_TOKEN_EXPIRES_IN")
	if cfg.BcryptCost < minBcryptCost || cfg.BcryptCost > maxBcryptCost {
		problems = append(problems, fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost))
	}
	if cfg.LoginRateLimit < 0 {
		problems = append(problems, errors.New("LOGIN_RATE_LIMIT must not be negative"))
	}
	if cfg.LoginRateWindow <= 0 {
		problems = append(problems, errors.New("LOGIN_RATE_WINDOW must be positive"))
	}
	if cfg.AccessTokenSecret != "" && cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		problems = append(problems, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		cfg.DatabaseURL = resolveDatabaseURL()
		if cfg.DatabaseURL == "" {
			problems = append(problems, errors.New("database configuration missing: provide DATABASE_URL or PG* env vars"))
		}
	case StorageMemory:
	default:
		problems = append(problems, fmt.Errorf("STORAGE_DRIVER %q is not supported", cfg.StorageDriver))
	}

	if err := errors.Join(problems...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabaseURL resolves only the database connection string, for tools
// that do not need token settings.
func LoadDatabaseURL() (string, error) {
	if err := loadDotEnv(".env"); err != nil {
		return "", fmt.Errorf("loading .env: %w", err)
	}
	url := resolveDatabaseURL()
	if url == "" {
		return "", errors.New("database configuration missing: provide DATABASE_URL or PG* env vars")
	}
	return url, nil
}

// ParseExpiry accepts bare seconds ("3600"), days ("7d") or a Go duration ("15m").
func ParseExpiry(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	var d time.Duration
	switch {
	case raw == "":
		return 0, errors.New("empty duration")
	case isDigits(raw):
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		d = time.Duration(n) * time.Second
	case strings.HasSuffix(raw, "d") && isDigits(strings.TrimSuffix(raw, "d")):
		n, err := strconv.ParseInt(strings.TrimSuffix(raw, "d"), 10, 64)
		if err != nil {
			return 0, err
		}
		d = time.Duration(n) * 24 * time.Hour
	default:
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		d = parsed
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return d, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid duration %q", key, val)
	}
	return d, nil
}

func getIntEnv(key string, fallback int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid integer %q", key, val)
	}
	return n, nil
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

func resolveDatabaseURL() string {
	for _, key := range []string{"DATABASE_URL", "POSTGRES_URL"} {
		if url := coerceDatabaseURL(os.Getenv(key)); url != "" {
			return url
		}
	}
	if path := os.Getenv("DATABASE_URL_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if url := coerceDatabaseURL(string(data)); url != "" {
				return url
			}
		}
	}

	host := firstNonEmpty(os.Getenv("PGHOST"), os.Getenv("POSTGRES_HOST"))
	user := firstNonEmpty(os.Getenv("PGUSER"), os.Getenv("POSTGRES_USER"))
	if host == "" || user == "" {
		return ""
	}
	password := firstNonEmpty(os.Getenv("PGPASSWORD"), os.Getenv("POSTGRES_PASSWORD"))
	database := firstNonEmpty(os.Getenv("PGDATABASE"), os.Getenv("POSTGRES_DB"), user)
	port := firstNonEmpty(os.Getenv("PGPORT"), os.Getenv("POSTGRES_PORT"), "5432")
	sslMode := firstNonEmpty(os.Getenv("PGSSLMODE"), "disable")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"):
		return raw
	case strings.HasPrefix(raw, "postgresql://"):
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf(".env line %d: missing '='", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return fmt.Errorf(".env line %d: empty key", lineNum)
		}
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		// Real environment wins over the file.
		if current, exists := os.LookupEnv(key); exists && current != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf(".env line %d: %w", lineNum, err)
		}
	}
	return scanner.Err()
}
