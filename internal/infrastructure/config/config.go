// Package config internal/infrastructure/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// ConfigPathEnv names the variable holding the YAML config path
const ConfigPathEnv = "RATECHECK_CONFIG_PATH"

// Config is the complete configuration of the rate checker. Every field can be set from
// YAML and overridden from the environment.
type Config struct {
	CountryAPI   CountryAPIConfig  `yaml:"country_api"`
	Converter    ConverterConfig   `yaml:"converter"`
	Countries    map[string]string `yaml:"countries" env:"RATECHECK_COUNTRIES" env-default:"GB:GBP,TR:TRY" env-description:"Expected currency per country, CC:CUR pairs"`
	DisplayNames map[string]string `yaml:"display_names" env:"RATECHECK_DISPLAY_NAMES" env-default:"GBP:British Pound,TRY:Turkish Lira,EUR:Euro" env-description:"Label shown by the converter per currency"`
	Check        CheckConfig       `yaml:"check"`
	Status       StatusConfig      `yaml:"status"`
	Log          LogConfig         `yaml:"log"`
}

type CountryAPIConfig struct {
	BaseURL  string        `yaml:"base_url" env:"RATECHECK_COUNTRY_API_BASE_URL" env-default:"https://restcountries.com" env-description:"Country data API base URL"`
	Timeout  time.Duration `yaml:"timeout" env:"RATECHECK_COUNTRY_API_TIMEOUT" env-default:"10s" env-description:"Country data API request timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"RATECHECK_COUNTRY_API_CACHE_TTL" env-default:"0s" env-description:"How long validated resolutions are reused, 0 disables"`
}

type ConverterConfig struct {
	URL                string          `yaml:"url" env:"RATECHECK_CONVERTER_URL" env-default:"https://www.oanda.com/currency-converter/en/" env-description:"Currency converter page"`
	ReferenceCurrency  string          `yaml:"reference_currency" env:"RATECHECK_REFERENCE_CURRENCY" env-default:"EUR" env-description:"Currency rates are quoted against"`
	WaitTimeout        time.Duration   `yaml:"wait_timeout" env:"RATECHECK_WAIT_TIMEOUT" env-default:"10s" env-description:"Bound of every page wait"`
	SettleTimeout      time.Duration   `yaml:"settle_timeout" env:"RATECHECK_SETTLE_TIMEOUT" env-default:"4s" env-description:"Longest wait for the rate to stop changing"`
	SettlePollInterval time.Duration   `yaml:"settle_poll_interval" env:"RATECHECK_SETTLE_POLL_INTERVAL" env-default:"250ms" env-description:"Rate field polling interval"`
	Headless           bool            `yaml:"headless" env:"RATECHECK_HEADLESS" env-description:"Run Chrome without a window (default true)"`
	ChromePath         string          `yaml:"chrome_path" env:"RATECHECK_CHROME_PATH" env-description:"Chrome binary, looked up on PATH when empty"`
	Selectors          SelectorsConfig `yaml:"selectors"`
}

type SelectorsConfig struct {
	PageRoot      string `yaml:"page_root" env:"RATECHECK_SELECTOR_PAGE_ROOT" env-default:".MuiAutocomplete-root"`
	BaseInput     string `yaml:"base_input" env:"RATECHECK_SELECTOR_BASE_INPUT" env-default:"#baseCurrency_currency_autocomplete"`
	QuoteInput    string `yaml:"quote_input" env:"RATECHECK_SELECTOR_QUOTE_INPUT" env-default:"#quoteCurrency_currency_autocomplete"`
	RateOutput    string `yaml:"rate_output" env:"RATECHECK_SELECTOR_RATE_OUTPUT" env-default:"input[name='numberformat'][tabindex='4']"`
	CookieConsent string `yaml:"cookie_consent" env:"RATECHECK_SELECTOR_COOKIE_CONSENT" env-default:"#onetrust-accept-btn-handler"`
}

type CheckConfig struct {
	CountryCodes []string      `yaml:"country_codes" env:"RATECHECK_COUNTRY_CODES" env-default:"TR,GB" env-description:"Countries checked when none are given"`
	Threshold    float64       `yaml:"threshold" env:"RATECHECK_THRESHOLD" env-description:"Rates strictly above this are reported as higher (default 1)"`
	Interval     time.Duration `yaml:"interval" env:"RATECHECK_INTERVAL" env-default:"0s" env-description:"Repeat checks at this interval, 0 runs once"`
}

type StatusConfig struct {
	Addr string `yaml:"addr" env:"RATECHECK_STATUS_ADDR" env-description:"Status server address, disabled when empty"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"RATECHECK_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"RATECHECK_LOG_FORMAT" env-default:"json"`
}

// DefaultThreshold is used when no threshold is configured
const DefaultThreshold = 1.0

// newConfig holds the defaults whose zero value is a valid setting, so env-default cannot
// express them
func newConfig() Config {
	var cfg Config
	cfg.Check.Threshold = DefaultThreshold
	cfg.Converter.Headless = true
	return cfg
}

// LoadDotEnv loads variables from an env file if it exists. Variables already set win.
func LoadDotEnv(file string) error {
	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

// Load reads the YAML file at path, or the one named by RATECHECK_CONFIG_PATH when path is
// empty, then applies environment overrides and defaults. Without any file only the
// environment and defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}

	cfg := newConfig()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.Converter.ReferenceCurrency = strings.ToUpper(strings.TrimSpace(c.Converter.ReferenceCurrency))
	c.Countries = upperKeys(c.Countries, true)
	c.DisplayNames = upperKeys(c.DisplayNames, false)

	codes := make([]string, 0, len(c.Check.CountryCodes))
	for _, code := range c.Check.CountryCodes {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			codes = append(codes, code)
		}
	}
	c.Check.CountryCodes = codes
	c.Log.Format = strings.ToLower(c.Log.Format)
}

func upperKeys(in map[string]string, upperValues bool) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		v = strings.TrimSpace(v)
		if upperValues {
			v = strings.ToUpper(v)
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	addf := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		addf("log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		addf("log.format: must be json or text, got %q", c.Log.Format)
	}

	if c.CountryAPI.BaseURL == "" {
		addf("country_api.base_url: must not be empty")
	}
	if c.CountryAPI.Timeout <= 0 {
		addf("country_api.timeout: must be positive")
	}
	if c.CountryAPI.CacheTTL < 0 {
		addf("country_api.cache_ttl: must not be negative")
	}

	if c.Converter.URL == "" {
		addf("converter.url: must not be empty")
	}
	if !isCode(c.Converter.ReferenceCurrency, 3) {
		addf("converter.reference_currency: %q is not a 3-letter code", c.Converter.ReferenceCurrency)
	}
	if c.Converter.WaitTimeout <= 0 {
		addf("converter.wait_timeout: must be positive")
	}
	if c.Converter.SettleTimeout <= 0 {
		addf("converter.settle_timeout: must be positive")
	}
	if c.Converter.SettlePollInterval <= 0 {
		addf("converter.settle_poll_interval: must be positive")
	}

	selectors := map[string]string{
		"page_root":      c.Converter.Selectors.PageRoot,
		"base_input":     c.Converter.Selectors.BaseInput,
		"quote_input":    c.Converter.Selectors.QuoteInput,
		"rate_output":    c.Converter.Selectors.RateOutput,
		"cookie_consent": c.Converter.Selectors.CookieConsent,
	}
	for name, sel := range selectors {
		if strings.TrimSpace(sel) == "" {
			addf("converter.selectors.%s: must not be empty", name)
		}
	}

	for country, currency := range c.Countries {
		if !isCode(country, 2) {
			addf("countries: %q is not a 2-letter country code", country)
		}
		if !isCode(currency, 3) {
			addf("countries.%s: %q is not a 3-letter currency code", country, currency)
		}
	}
	for _, code := range c.Check.CountryCodes {
		if !isCode(code, 2) {
			addf("check.country_codes: %q is not a 2-letter country code", code)
		}
	}
	if c.Check.Interval < 0 {
		addf("check.interval: must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func isCode(s string, length int) bool {
	if utf8.RuneCountInString(s) != length {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Usage describes every environment variable the configuration reads
func Usage() string {
	header := "Environment variables:"
	text, err := cleanenv.GetDescription(&Config{}, &header)
	if err != nil {
		return ""
	}
	return text
}
