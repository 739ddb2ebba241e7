// Package service internal/application/service/rate_scraper.go
package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/entity"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/repository"
	domain "github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/middleware"
)

// MsgConversionFailed is the message of every scraping failure
const MsgConversionFailed = "failed to convert currency"

// ScrapeState is a step of one conversion on the converter page
type ScrapeState string

const (
	StateStart          ScrapeState = "start"
	StatePageLoaded     ScrapeState = "page_loaded"
	StateConsentHandled ScrapeState = "consent_handled"
	StateBaseSet        ScrapeState = "base_set"
	StateQuoteSet       ScrapeState = "quote_set"
	StateSettled        ScrapeState = "settled"
	StateRateRead       ScrapeState = "rate_read"
	StateDone           ScrapeState = "done"
	StateFailed         ScrapeState = "failed"
)

// StepError records the transition that failed and why
type StepError struct {
	From ScrapeState
	To   ScrapeState
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", e.From, e.To, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Selectors locate the converter page elements. They belong to the third-party site
// and are expected to change.
type Selectors struct {
	PageRoot      string
	BaseInput     string
	QuoteInput    string
	RateOutput    string
	CookieConsent string
}

// ScraperConfig configures the converter page automation
type ScraperConfig struct {
	URL               string
	ReferenceCurrency string
	Selectors         Selectors

	// WaitTimeout bounds every single UI wait
	WaitTimeout time.Duration

	// SettleTimeout bounds the wait for the rate field to stop changing
	SettleTimeout      time.Duration
	SettlePollInterval time.Duration
}

// RateScraper reads live exchange rates from a currency-converter page
type RateScraper struct {
	sessions domain.SessionFactory
	table    repository.CurrencyTable
	cfg      ScraperConfig
	logger   logger.Logger
	now      func() time.Time
}

var _ domain.RateConverter = (*RateScraper)(nil)

// NewRateScraper creates a new rate scraper
func NewRateScraper(sessions domain.SessionFactory, table repository.CurrencyTable, cfg ScraperConfig, log logger.Logger) *RateScraper {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if cfg.SettlePollInterval <= 0 {
		cfg.SettlePollInterval = 250 * time.Millisecond
	}

	return &RateScraper{
		sessions: sessions,
		table:    table,
		cfg:      cfg,
		logger:   log.WithField("component", "rate_scraper"),
		now:      time.Now,
	}
}

type transition struct {
	to  ScrapeState
	run func(ctx context.Context) error
}

// Convert opens a fresh browser session, sets both currencies on the converter page and
// reads the computed rate. An empty to selects the reference currency. The session is
// closed before Convert returns.
func (s *RateScraper) Convert(ctx context.Context, from, to string) (float64, error) {
	quote, err := s.Quote(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return quote.Rate, nil
}

// Quote is Convert returning the full exchange rate record
func (s *RateScraper) Quote(ctx context.Context, from, to string) (entity.ExchangeRate, error) {
	if to == "" {
		to = s.cfg.ReferenceCurrency
	}
	fields := map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
		"from":       from,
		"to":         to,
	}

	session, err := s.sessions.NewSession(ctx)
	if err != nil {
		s.logger.Error("Failed to start browser session", withError(fields, err))
		return entity.ExchangeRate{}, apperror.New(apperror.KindAutomation, MsgConversionFailed,
			&StepError{From: StateStart, To: StatePageLoaded, Err: err})
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.Warn("Failed to close browser session", withError(fields, closeErr))
		}
	}()

	rate, err := s.drive(ctx, session, from, to)
	if err != nil {
		fields["state"] = StateFailed
		s.logger.Error("Currency conversion failed", withError(fields, err))
		return entity.ExchangeRate{}, apperror.New(apperror.KindAutomation, MsgConversionFailed, err)
	}

	fields["state"] = StateDone
	fields["rate"] = rate
	s.logger.Info("Currency converted", fields)

	return entity.ExchangeRate{
		Base:        from,
		Quote:       to,
		Rate:        rate,
		RetrievedAt: s.now(),
	}, nil
}

func (s *RateScraper) drive(ctx context.Context, session domain.PageSession, from, to string) (float64, error) {
	sel := s.cfg.Selectors
	var rate float64

	transitions := []transition{
		{StatePageLoaded, func(ctx context.Context) error {
			if err := s.wait(ctx, func(ctx context.Context) error {
				return session.Navigate(ctx, s.cfg.URL)
			}); err != nil {
				return err
			}
			return s.wait(ctx, func(ctx context.Context) error {
				return session.WaitPresent(ctx, sel.PageRoot)
			})
		}},
		{StateConsentHandled, func(ctx context.Context) error {
			if err := s.wait(ctx, func(ctx context.Context) error {
				return session.WaitClickable(ctx, sel.CookieConsent)
			}); err != nil {
				return err
			}
			return session.Click(ctx, sel.CookieConsent)
		}},
		{StateBaseSet, func(ctx context.Context) error {
			return s.setCurrency(ctx, session, sel.BaseInput, from)
		}},
		{StateQuoteSet, func(ctx context.Context) error {
			return s.setCurrency(ctx, session, sel.QuoteInput, to)
		}},
		{StateSettled, func(ctx context.Context) error {
			return s.settle(ctx, session)
		}},
		{StateRateRead, func(ctx context.Context) (err error) {
			rate, err = s.readRate(ctx, session)
			return err
		}},
	}

	state := StateStart
	for _, t := range transitions {
		if err := t.run(ctx); err != nil {
			return 0, &StepError{From: state, To: t.to, Err: err}
		}
		s.logger.Debug("Converter state reached", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"state":      t.to,
		})
		state = t.to
	}

	return rate, nil
}

// wait runs one UI wait bounded by the configured timeout
func (s *RateScraper) wait(ctx context.Context, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.WaitTimeout)
	defer cancel()

	return fn(waitCtx)
}

// setCurrency fills an autocomplete input and confirms its first suggestion. The displayed
// value is compared against the expected label, but a mismatch is only logged.
func (s *RateScraper) setCurrency(ctx context.Context, session domain.PageSession, selector, code string) error {
	if err := s.wait(ctx, func(ctx context.Context) error {
		return session.WaitClickable(ctx, selector)
	}); err != nil {
		return err
	}

	var actual string
	if err := s.wait(ctx, func(ctx context.Context) error {
		if err := session.Click(ctx, selector); err != nil {
			return err
		}
		if err := session.Clear(ctx, selector); err != nil {
			return err
		}
		if err := session.Type(ctx, selector, code); err != nil {
			return err
		}
		if err := session.Press(ctx, selector, domain.KeyArrowDown); err != nil {
			return err
		}
		if err := session.Press(ctx, selector, domain.KeyEnter); err != nil {
			return err
		}

		var err error
		actual, err = session.Value(ctx, selector)
		return err
	}); err != nil {
		return err
	}

	expected, known := s.table.DisplayName(code)
	if !known || actual != expected {
		s.logger.Warn("Currency input shows unexpected value", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"selector":   selector,
			"currency":   code,
			"expected":   expected,
			"actual":     actual,
		})
	}

	return nil
}

// settle polls the rate field until two consecutive non-empty reads agree. When the
// settle timeout elapses first it gives up quietly and leaves the final read to readRate.
func (s *RateScraper) settle(ctx context.Context, session domain.PageSession) error {
	deadline := time.Now().Add(s.cfg.SettleTimeout)
	ticker := time.NewTicker(s.cfg.SettlePollInterval)
	defer ticker.Stop()

	previous := ""
	for {
		readCtx, cancel := context.WithTimeout(ctx, s.cfg.SettlePollInterval)
		current, err := session.Value(readCtx, s.cfg.Selectors.RateOutput)
		cancel()

		if err == nil && current != "" {
			if current == previous {
				return nil
			}
			previous = current
		}

		if !time.Now().Before(deadline) {
			s.logger.Debug("Rate did not settle before timeout", map[string]interface{}{
				"request_id": middleware.GetRequestID(ctx),
				"last_value": previous,
			})
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *RateScraper) readRate(ctx context.Context, session domain.PageSession) (float64, error) {
	selector := s.cfg.Selectors.RateOutput

	var value string
	if err := s.wait(ctx, func(ctx context.Context) error {
		if err := session.WaitPresent(ctx, selector); err != nil {
			return err
		}
		var err error
		value, err = session.Value(ctx, selector)
		return err
	}); err != nil {
		return 0, err
	}

	return ParseRate(value)
}

// thousandsGrouped matches numbers whose commas are all thousands separators
var thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseRate parses the text of the rate field, ignoring surrounding space and
// thousands separators. Any other comma is rejected.
func ParseRate(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if strings.Contains(cleaned, ",") {
		if !thousandsGrouped.MatchString(cleaned) {
			return 0, fmt.Errorf("failed to parse rate %q: misplaced comma", value)
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	rate, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse rate %q: %w", value, err)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("rate %q is not a finite number", value)
	}

	return rate, nil
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
