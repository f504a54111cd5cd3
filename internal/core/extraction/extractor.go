package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/modelhub/internal/config"
	"github.com/agenthands/modelhub/internal/core/common"
	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/llm"
	"github.com/agenthands/modelhub/internal/logger"
	"github.com/agenthands/modelhub/internal/notify"
)

var ErrNoActiveTemplates = errors.New("no active models for client")

type TemplateRepository interface {
	FindActiveTemplates(ctx context.Context, clientID string) ([]model.Template, error)
}

type LogSink interface {
	AppendLog(ctx context.Context, entry *model.ExtractionLog) error
}

type Alerter interface {
	SendAlert(ctx context.Context, a notify.Alert)
}

// Request is one transcript to run through every active model of a client.
type Request struct {
	ClientID     string
	Transcript   json.RawMessage
	GlobalConfig map[string]any
	AudioSource  string
}

// Error is returned when a model fails all of its attempts. Results of the
// other models are discarded.
type Error struct {
	ClientID string
	Template string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("model %q failed after %d attempts: %v", e.Template, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Extractor struct {
	Templates TemplateRepository
	LLM       llm.LLMClient
	Logs      LogSink
	Alerts    Alerter

	MaxAttempts    int
	InitialBackoff time.Duration

	// NewTimer supplies the backoff timer for each model. Nil uses a real timer.
	NewTimer func() backoff.Timer
	Now      func() time.Time
	Logger   *slog.Logger
}

func NewExtractor(templates TemplateRepository, llmClient llm.LLMClient, logs LogSink, cfg config.ExtractionConfig) *Extractor {
	return &Extractor{
		Templates:      templates,
		LLM:            llmClient,
		Logs:           logs,
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff.Duration,
		Now:            time.Now,
		Logger:         slog.Default(),
	}
}

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Extract runs every active model of the client against the transcript in
// parallel and returns the parsed results keyed by model name. Exactly one
// extraction log is written unless the client has no active models.
func (e *Extractor) Extract(ctx context.Context, req Request) (map[string]any, error) {
	log := logger.WithContext(ctx, e.Logger).With("client_id", req.ClientID)

	templates, err := e.Templates.FindActiveTemplates(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	if len(templates) == 0 {
		return nil, ErrNoActiveTemplates
	}

	start := e.now()
	transcript, err := json.Marshal(req.Transcript)
	if err != nil {
		return nil, fmt.Errorf("invalid transcript: %w", err)
	}
	size := utf8.RuneCount(transcript)
	input, err := buildInput(transcript, req.GlobalConfig)
	if err != nil {
		return nil, err
	}

	log.Info("extraction.start", "models", len(templates), "transcript_size", size)

	values := make([]any, len(templates))
	var g errgroup.Group
	for i, tmpl := range templates {
		g.Go(func() error {
			v, err := e.run(ctx, log, tmpl, input)
			if err != nil {
				err.ClientID = req.ClientID
				return err
			}
			values[i] = v
			return nil
		})
	}
	waitErr := g.Wait()

	entry := &model.ExtractionLog{
		ClientID:          req.ClientID,
		TranscriptionSize: size,
		DurationMs:        e.now().Sub(start).Milliseconds(),
		AudioSource:       req.AudioSource,
	}

	if waitErr != nil {
		var xerr *Error
		if !errors.As(waitErr, &xerr) {
			xerr = &Error{ClientID: req.ClientID, Err: waitErr}
		}
		e.fail(ctx, log, entry, templates, xerr)
		return nil, xerr
	}

	results := make(map[string]any, len(templates))
	for i, tmpl := range templates {
		results[tmpl.Name] = values[i]
	}
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entry.Status = model.StatusSuccess
	entry.ModelsUsed = modelRefs(templates)
	entry.Response = results
	entry.Metadata = map[string]any{
		"modelCount":   len(templates),
		"responseKeys": keys,
	}
	e.appendLog(ctx, log, entry)

	log.Info("extraction.success", "models", len(templates), "duration_ms", entry.DurationMs)
	return results, nil
}

// run calls one model with retries and normalizes its answer. Both
// generation and parse failures are retried.
func (e *Extractor) run(ctx context.Context, log *slog.Logger, tmpl model.Template, input string) (any, *Error) {
	var (
		attempts atomic.Int32
		value    any
	)
	op := func() error {
		attempts.Add(1)
		raw, err := e.LLM.Generate(ctx, tmpl.Prompt, input)
		if err != nil {
			return err
		}
		v, err := common.Normalize(raw)
		if err != nil {
			return err
		}
		value = v
		return nil
	}
	onRetry := func(err error, wait time.Duration) {
		log.Warn("extraction.attempt_failed",
			"model", tmpl.Name,
			"attempt", attempts.Load(),
			"retry_in", wait,
			"error", err,
		)
	}

	var timer backoff.Timer
	if e.NewTimer != nil {
		timer = e.NewTimer()
	}
	if err := backoff.RetryNotifyWithTimer(op, e.policy(ctx), onRetry, timer); err != nil {
		return nil, &Error{Template: tmpl.Name, Attempts: int(attempts.Load()), Err: err}
	}
	return value, nil
}

// policy waits InitialBackoff * 2^(attempt-1) between attempts.
func (e *Extractor) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.InitialBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Hour
	exp.MaxElapsedTime = 0

	retries := max(e.MaxAttempts, 1) - 1
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func (e *Extractor) fail(ctx context.Context, log *slog.Logger, entry *model.ExtractionLog, loaded []model.Template, xerr *Error) {
	used := loaded
	if reloaded, err := e.Templates.FindActiveTemplates(ctx, entry.ClientID); err == nil {
		used = reloaded
	} else {
		log.Warn("extraction.reload_models_failed", "error", err)
	}

	entry.Status = model.StatusError
	entry.ModelsUsed = modelRefs(used)
	entry.ErrorMessage = xerr.Error()
	entry.Metadata = map[string]any{
		"modelCount":  len(used),
		"failedModel": xerr.Template,
		"attempts":    xerr.Attempts,
		"errorType":   errorType(xerr.Err),
	}
	e.appendLog(ctx, log, entry)

	log.Error("extraction.failed",
		"model", xerr.Template,
		"attempts", xerr.Attempts,
		"duration_ms", entry.DurationMs,
		"error", xerr.Err,
	)

	if e.Alerts != nil {
		e.Alerts.SendAlert(ctx, notify.Alert{
			Level:   notify.LevelError,
			Title:   "Extraction failed",
			Message: fmt.Sprintf("client %s, model %s", entry.ClientID, xerr.Template),
			Err:     xerr.Err,
			Extra:   entry.Metadata,
		})
	}
}

// appendLog never fails the extraction.
func (e *Extractor) appendLog(ctx context.Context, log *slog.Logger, entry *model.ExtractionLog) {
	if err := e.Logs.AppendLog(ctx, entry); err != nil {
		log.Error("extraction.log_write_failed", "status", entry.Status, "error", err)
	}
}

func buildInput(transcript []byte, global map[string]any) (string, error) {
	if len(global) == 0 {
		return string(transcript), nil
	}
	cfg, err := json.Marshal(global)
	if err != nil {
		return "", fmt.Errorf("invalid global config: %w", err)
	}
	return fmt.Sprintf("Transcript:\n%s\n\nGlobal configuration:\n%s", transcript, cfg), nil
}

func modelRefs(templates []model.Template) []model.ModelRef {
	refs := make([]model.ModelRef, 0, len(templates))
	for _, t := range templates {
		refs = append(refs, model.ModelRef{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	return refs
}

func errorType(err error) string {
	var (
		perr *common.ParseError
		gerr *llm.GenerationError
	)
	switch {
	case errors.As(err, &perr):
		return "parse"
	case errors.As(err, &gerr):
		return "generation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unknown"
	}
}
