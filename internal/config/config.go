package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppPort string
	AppEnv  string

	LogLevel string

	DBDriver   string
	SQLitePath string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	LockBackend string
	LockTTLSecs int

	ValuationURL       string
	ValuationTimeoutMS int

	PolicyFile string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		AppEnv:   getenv("APP_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
		SQLitePath: getenv("SQLITE_PATH", "tradecore.db"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "tradecore"),
		MySQLUser: getenv("MYSQL_USER", "tradecore"),
		MySQLPass: getenv("MYSQL_PASS", "tradecore"),

		RedisAddr:    getenv("REDIS_ADDR", ""),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		LockBackend: strings.ToLower(getenv("LOCK_BACKEND", "local")),
		LockTTLSecs: getint("LOCK_TTL_SECONDS", 30),

		ValuationURL:       getenv("VALUATION_URL", ""),
		ValuationTimeoutMS: getint("VALUATION_TIMEOUT_MS", 2000),

		PolicyFile: getenv("POLICY_FILE", ""),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.AppPort == "" {
		errs = append(errs, errors.New("missing APP_PORT"))
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			errs = append(errs, errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)"))
		} else if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			errs = append(errs, fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err))
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("missing SQLITE_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver))
	}
	switch c.LockBackend {
	case "local":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("LOCK_BACKEND=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("LOCK_BACKEND must be local or redis, got %q", c.LockBackend))
	}
	if c.LockTTLSecs <= 0 {
		errs = append(errs, errors.New("LOCK_TTL_SECONDS must be positive"))
	}
	if c.ValuationURL != "" {
		if u, err := url.Parse(c.ValuationURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid VALUATION_URL %q", c.ValuationURL))
		}
	}
	if c.ValuationTimeoutMS <= 0 {
		errs = append(errs, errors.New("VALUATION_TIMEOUT_MS must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime is needed for DATETIME; loc=UTC keeps audit timestamps comparable
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) LockTTL() time.Duration { return time.Duration(c.LockTTLSecs) * time.Second }

func (c *Config) ValuationTimeout() time.Duration {
	return time.Duration(c.ValuationTimeoutMS) * time.Millisecond
}
