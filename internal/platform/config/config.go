package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"nomina/internal/domain/payroll"
)

type Config struct {
	Addr               string
	Environment        string
	LogLevel           string
	DatabaseURL        string
	RunMigrations      bool
	MigrationsDir      string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	MetricsEnabled     bool

	DayStart           string
	NightStart         string
	OrdinaryDailyHours time.Duration
	Rates              map[payroll.Category]string
	HealthRate         string
	PensionRate        string
	TransportAllowance string
	DefaultBaseSalary  string

	HolidayAPIURL           string
	HolidayCountry          string
	HolidayTimeout          time.Duration
	HolidayPrefetchInterval time.Duration
}

// rateKeys maps each priced category to its environment variable.
var rateKeys = map[payroll.Category]string{
	payroll.NightSurcharge:             "RATE_NIGHT_SURCHARGE",
	payroll.SundayHolidayDay:           "RATE_SUNDAY_HOLIDAY_DAY",
	payroll.SundayHolidayNight:         "RATE_SUNDAY_HOLIDAY_NIGHT",
	payroll.OvertimeDay:                "RATE_OVERTIME_DAY",
	payroll.OvertimeNight:              "RATE_OVERTIME_NIGHT",
	payroll.OvertimeSundayHolidayDay:   "RATE_OVERTIME_SUNDAY_HOLIDAY_DAY",
	payroll.OvertimeSundayHolidayNight: "RATE_OVERTIME_SUNDAY_HOLIDAY_NIGHT",
}

// Load reads the environment after applying any .env files. Missing files
// are ignored; with no arguments ".env" in the working directory is tried.
func Load(envFiles ...string) Config {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("env file not loaded", "err", err)
	}

	defaults := payroll.DefaultEngine()
	rates := make(map[payroll.Category]string, len(rateKeys))
	for c, key := range rateKeys {
		rates[c] = getEnv(key, defaults.Rates.Rate(c).String())
	}

	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),

		DayStart:           getEnv("DAY_START", defaults.Rules.DayStart.String()),
		NightStart:         getEnv("NIGHT_START", defaults.Rules.NightStart.String()),
		OrdinaryDailyHours: getEnvDuration("ORDINARY_DAILY_HOURS", defaults.Rules.OrdinaryDailyHours),
		Rates:              rates,
		HealthRate:         getEnv("HEALTH_RATE", defaults.Statutory.HealthRate.String()),
		PensionRate:        getEnv("PENSION_RATE", defaults.Statutory.PensionRate.String()),
		TransportAllowance: getEnv("TRANSPORT_ALLOWANCE", defaults.Statutory.TransportAllowance.String()),
		DefaultBaseSalary:  getEnv("DEFAULT_BASE_SALARY", "711750"),

		HolidayAPIURL:           getEnv("HOLIDAY_API_URL", "https://date.nager.at"),
		HolidayCountry:          getEnv("HOLIDAY_COUNTRY", "CO"),
		HolidayTimeout:          getEnvDuration("HOLIDAY_TIMEOUT", 10*time.Second),
		HolidayPrefetchInterval: getEnvDuration("HOLIDAY_PREFETCH_INTERVAL", 24*time.Hour),
	}
}

// PayrollEngine parses the engine keys into a validated engine.
func (c Config) PayrollEngine() (payroll.Engine, error) {
	dayStart, err := payroll.ParseClock(c.DayStart)
	if err != nil {
		return payroll.Engine{}, fmt.Errorf("DAY_START: %w", err)
	}
	nightStart, err := payroll.ParseClock(c.NightStart)
	if err != nil {
		return payroll.Engine{}, fmt.Errorf("NIGHT_START: %w", err)
	}
	rules := payroll.Rules{DayStart: dayStart, NightStart: nightStart, OrdinaryDailyHours: c.OrdinaryDailyHours}

	rates := make(map[payroll.Category]decimal.Decimal, len(rateKeys))
	for cat, key := range rateKeys {
		value, err := decimal.NewFromString(strings.TrimSpace(c.Rates[cat]))
		if err != nil {
			return payroll.Engine{}, fmt.Errorf("%s: %w", key, err)
		}
		rates[cat] = value
	}
	table, err := payroll.NewRateTable(rates)
	if err != nil {
		return payroll.Engine{}, err
	}

	var statutory payroll.Statutory
	if statutory.HealthRate, err = decimal.NewFromString(c.HealthRate); err != nil {
		return payroll.Engine{}, fmt.Errorf("HEALTH_RATE: %w", err)
	}
	if statutory.PensionRate, err = decimal.NewFromString(c.PensionRate); err != nil {
		return payroll.Engine{}, fmt.Errorf("PENSION_RATE: %w", err)
	}
	if statutory.TransportAllowance, err = decimal.NewFromString(c.TransportAllowance); err != nil {
		return payroll.Engine{}, fmt.Errorf("TRANSPORT_ALLOWANCE: %w", err)
	}
	return payroll.NewEngine(rules, table, statutory)
}

func (c Config) BaseSalary() (decimal.Decimal, error) {
	salary, err := decimal.NewFromString(c.DefaultBaseSalary)
	if err != nil {
		return decimal.Zero, fmt.Errorf("DEFAULT_BASE_SALARY: %w", err)
	}
	if salary.IsNegative() {
		return decimal.Zero, fmt.Errorf("DEFAULT_BASE_SALARY must not be negative")
	}
	return salary, nil
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks what the HTTP server needs on top of the engine settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Environment == "production" {
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ALLOWED_ORIGINS must not be * in production")
			}
		}
	}
	if strings.TrimSpace(c.HolidayCountry) == "" {
		return fmt.Errorf("HOLIDAY_COUNTRY is required")
	}
	if c.HolidayTimeout <= 0 {
		return fmt.Errorf("HOLIDAY_TIMEOUT must be positive")
	}
	if _, err := c.PayrollEngine(); err != nil {
		return err
	}
	if _, err := c.BaseSalary(); err != nil {
		return err
	}
	return nil
}
