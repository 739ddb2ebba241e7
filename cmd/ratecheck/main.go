package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/damon-houk/fx-threshold-checker/internal/application/service"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/entity"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/api"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/browser"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/cache"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/config"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/handler"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/metrics"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// checker is the part of the check service the command drives
type checker interface {
	CheckAll(ctx context.Context, countryCodes []string, threshold float64) []entity.CheckResult
}

type options struct {
	configPath string
	envFile    string
	threshold  *float64
	interval   *time.Duration
	codes      []string
}

func parseArgs(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("ratecheck", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $"+config.ConfigPathEnv+")")
	fs.StringVar(&opts.envFile, "env-file", ".env", "env file loaded before reading the configuration")
	threshold := fs.Float64("threshold", config.DefaultThreshold, "report rates strictly above this value")
	interval := fs.Duration("interval", 0, "repeat the checks at this interval until interrupted")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: ratecheck [flags] [COUNTRY_CODE ...]")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output())
		fmt.Fprint(fs.Output(), config.Usage())
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	// Flags only override the configuration when given explicitly
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threshold":
			opts.threshold = threshold
		case "interval":
			opts.interval = interval
		}
	})
	for _, code := range fs.Args() {
		opts.codes = append(opts.codes, strings.ToUpper(code))
	}

	return opts, nil
}

func (o options) apply(cfg *config.Config) error {
	if o.threshold != nil {
		cfg.Check.Threshold = *o.threshold
	}
	if o.interval != nil {
		cfg.Check.Interval = *o.interval
	}
	if len(o.codes) > 0 {
		cfg.Check.CountryCodes = o.codes
	}
	if len(cfg.Check.CountryCodes) == 0 {
		return errors.New("no country codes to check")
	}
	return cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if err := config.LoadDotEnv(opts.envFile); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := logger.NewLogrusLogger(stderr, level, cfg.Log.Format)
	logger.SetDefaultLogger(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkMetrics := metrics.NewCheckMetrics(reg)

	checks, resolutions := newCheckService(cfg, checkMetrics, log)

	board := handler.NewResultBoard()
	if cfg.Status.Addr != "" {
		shutdown := startStatusServer(cfg.Status.Addr, reg, board, log)
		defer shutdown()
	}

	log.Info("Starting rate checks", map[string]interface{}{
		"country_codes": cfg.Check.CountryCodes,
		"threshold":     cfg.Check.Threshold,
		"interval":      cfg.Check.Interval.String(),
	})

	return watch(ctx, checks, cfg.Check, board, resolutions, stdout, stderr)
}

// newCheckService wires the retrieval pipeline from configuration. The returned cache is
// nil when resolution caching is off.
func newCheckService(cfg *config.Config, m *metrics.CheckMetrics, log logger.Logger) (*service.CheckService, *cache.CurrencyCache) {
	currencies := table.NewStaticTable(cfg.Countries, cfg.DisplayNames)

	var resolutions *cache.CurrencyCache
	if cfg.CountryAPI.CacheTTL > 0 {
		resolutions = cache.NewCurrencyCache(cfg.CountryAPI.CacheTTL)
	}

	httpClient := api.NewHTTPClient(cfg.CountryAPI.Timeout, log)
	resolver := api.NewCountryAPIClient(cfg.CountryAPI.BaseURL, httpClient, currencies, resolutions, log)

	sessions := browser.NewChromeSessionFactory(browser.ChromeOptions{
		Headless: cfg.Converter.Headless,
		ExecPath: cfg.Converter.ChromePath,
	}, log)
	scraper := service.NewRateScraper(sessions, currencies, scraperConfig(cfg.Converter), log)

	retrieval := service.NewRetrievalService(resolver, scraper, m, log)
	return service.NewCheckService(retrieval, m, log), resolutions
}

func scraperConfig(c config.ConverterConfig) service.ScraperConfig {
	return service.ScraperConfig{
		URL:               c.URL,
		ReferenceCurrency: c.ReferenceCurrency,
		Selectors: service.Selectors{
			PageRoot:      c.Selectors.PageRoot,
			BaseInput:     c.Selectors.BaseInput,
			QuoteInput:    c.Selectors.QuoteInput,
			RateOutput:    c.Selectors.RateOutput,
			CookieConsent: c.Selectors.CookieConsent,
		},
		WaitTimeout:        c.WaitTimeout,
		SettleTimeout:      c.SettleTimeout,
		SettlePollInterval: c.SettlePollInterval,
	}
}

// startStatusServer serves the status routes in the background and returns a function
// that shuts the server down
func startStatusServer(addr string, reg *prometheus.Registry, board *handler.ResultBoard, log logger.Logger) func() {
	h := handler.NewStatusHandler(reg, board, log)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.NewRouter(h, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Status server listening", map[string]interface{}{"addr": addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Status server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("Status server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// watch runs the checks once, or repeatedly when an interval is set. One-shot runs fail
// when any country failed; watch mode ends cleanly when ctx is cancelled. Expired
// resolutions are dropped after every round; resolutions may be nil.
func watch(ctx context.Context, checks checker, cfg config.CheckConfig, board *handler.ResultBoard,
	resolutions *cache.CurrencyCache, stdout, stderr io.Writer) int {
	for {
		results := checks.CheckAll(ctx, cfg.CountryCodes, cfg.Threshold)
		board.Record(results...)
		failed := report(stdout, stderr, results)

		if resolutions != nil {
			resolutions.CleanExpired()
		}

		if cfg.Interval <= 0 {
			if failed > 0 || len(results) < len(cfg.CountryCodes) {
				return exitFailed
			}
			return exitOK
		}

		select {
		case <-ctx.Done():
			return exitOK
		case <-time.After(cfg.Interval):
		}
	}
}

// report prints one line per result and returns the number of failures
func report(stdout, stderr io.Writer, results []entity.CheckResult) int {
	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
			fmt.Fprintf(stderr, "skipped %s: %s\n", r.CountryCode, describeError(r.Err))
			continue
		}

		threshold := strconv.FormatFloat(r.Threshold, 'f', -1, 64)
		if r.Exceeded {
			fmt.Fprintf(stdout, "Exchange rate for %s is higher than %s.\n", r.Currency, threshold)
		} else {
			fmt.Fprintf(stdout, "Exchange rate for %s is not higher than %s.\n", r.Currency, threshold)
		}
	}
	return failed
}

func describeError(err error) string {
	if kind, ok := apperror.KindOf(err); ok {
		return fmt.Sprintf("%s: %s", kind, err.Error())
	}
	return err.Error()
}
