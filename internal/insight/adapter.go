// Package insight turns an experiment's log history into free-text commentary
// using an external text generator, degrading to fixed text when it fails.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vitalcore/pkg/domain"
)

const (
	// DefaultTimeout bounds a single generator call.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is the number of extra attempts after a failed call.
	DefaultRetries = 1
	// DefaultFallback is returned when no insight could be generated.
	DefaultFallback = "Insight is unavailable right now. Keep logging and check back later."
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request carries the data an insight is generated from.
type Request struct {
	PriorLogs     []domain.LogEntry
	TemplateTitle string
	AsOfDate      time.Time
}

// Options configures an Adapter. Zero values select the defaults; set NoRetry
// to make a single attempt.
type Options struct {
	Timeout  time.Duration
	Retries  int
	NoRetry  bool
	Fallback string
	Logger   *zap.Logger
}

// Adapter wraps a Generator with a timeout, a bounded retry and a fallback.
type Adapter struct {
	gen      Generator
	timeout  time.Duration
	retries  int
	fallback string
	log      *zap.Logger
}

// NewAdapter returns an adapter around gen. A nil gen always yields the fallback.
func NewAdapter(gen Generator, opts Options) *Adapter {
	a := &Adapter{
		gen:      gen,
		timeout:  opts.Timeout,
		retries:  opts.Retries,
		fallback: opts.Fallback,
		log:      opts.Logger,
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	switch {
	case opts.NoRetry:
		a.retries = 0
	case a.retries <= 0:
		a.retries = DefaultRetries
	}
	if a.fallback == "" {
		a.fallback = DefaultFallback
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Fallback returns the text used when generation fails.
func (a *Adapter) Fallback() string { return a.fallback }

// Insight returns generated text for req, or the fallback text. It never fails.
func (a *Adapter) Insight(ctx context.Context, req Request) string {
	text, err := a.generate(ctx, req)
	if err != nil {
		a.log.Warn("insight generation failed, using fallback",
			zap.String("template", req.TemplateTitle),
			zap.Error(err))
		return a.fallback
	}
	return text
}

func (a *Adapter) generate(ctx context.Context, req Request) (string, error) {
	if a.gen == nil {
		return "", fmt.Errorf("%w: no generator configured", domain.ErrExternalUnavailable)
	}
	prompt := BuildPrompt(req)
	var lastErr error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		text, err := a.attempt(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		a.log.Debug("insight attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return "", fmt.Errorf("%w: %w", domain.ErrExternalUnavailable, lastErr)
}

func (a *Adapter) attempt(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	text, err := a.gen.Generate(callCtx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}

// BuildPrompt renders the generator prompt for req.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are reviewing a personal health experiment: %q.\n", req.TemplateTitle)
	if !req.AsOfDate.IsZero() {
		fmt.Fprintf(&b, "Today is %s.\n", req.AsOfDate.Format(time.DateOnly))
	}
	if len(req.PriorLogs) == 0 {
		b.WriteString("No days have been logged yet.\n")
	} else {
		b.WriteString("Logged days, oldest first:\n")
		for i, entry := range req.PriorLogs {
			fmt.Fprintf(&b, "%d. %s", i+1, entry.Timestamp.UTC().Format(time.DateOnly))
			if entry.Temperature != nil {
				fmt.Fprintf(&b, " temperature=%.1fF", *entry.Temperature)
			}
			if entry.Pulse != nil {
				fmt.Fprintf(&b, " pulse=%dbpm", *entry.Pulse)
			}
			if notes := strings.TrimSpace(entry.Notes); notes != "" {
				fmt.Fprintf(&b, " notes=%q", notes)
			}
			b.WriteByte('\n')
		}
	}
	b.WriteString("In two or three sentences, describe any trend and one practical next step.")
	return b.String()
}
