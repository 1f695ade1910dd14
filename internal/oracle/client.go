// Package oracle classifies batches of transaction descriptions with a remote
// language model.
package oracle

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/parsererror"

	"golang.org/x/time/rate"
)

// Backend sends one prompt to a completion service and returns its text.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options tune a Client.
type Options struct {
	Retry             RetryPolicy
	RequestsPerMinute int           // <= 0 disables rate limiting
	Timeout           time.Duration // per request, <= 0 disables
	FallbackCategory  string
}

// Client turns description batches into category pairs. It is safe for
// concurrent use.
type Client struct {
	backend Backend
	vocab   Vocabulary
	retry   RetryPolicy
	limiter *rate.Limiter
	timeout time.Duration
	logger  logging.Logger

	calls atomic.Int64
}

// NewClient returns a Client offering categories to backend.
func NewClient(backend Backend, categories []string, opts Options, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	c := &Client{
		backend: backend,
		vocab:   NewVocabulary(categories, opts.FallbackCategory),
		retry:   opts.Retry.withDefaults(),
		timeout: opts.Timeout,
		logger:  logger.WithField(logging.FieldBackend, backend.Name()),
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// Calls is the number of requests sent so far, retries included.
func (c *Client) Calls() int64 { return c.calls.Load() }

// Categories lists the vocabulary offered to the backend.
func (c *Client) Categories() []string { return c.vocab.Names() }

// ClassifyBatch classifies descriptions in a single request, retrying
// transport failures and unusable output. It never returns an error: after
// the attempts run out the batch comes back invalid and empty, and its
// descriptions stay unresolved.
func (c *Client) ClassifyBatch(ctx context.Context, descriptions []string) models.BatchResult {
	if len(descriptions) == 0 {
		return models.BatchResult{Valid: true}
	}

	prompt := BuildPrompt(descriptions, c.vocab.Names())
	wanted := newRequested(descriptions)

	var result models.BatchResult
	err := c.retry.Do(ctx,
		func(attempt int) error {
			raw, err := c.complete(ctx, prompt)
			if err != nil {
				return err
			}
			pairs, valid, err := ParseResponse(raw, c.vocab)
			if err != nil {
				return err
			}
			kept, dropped := c.keepKnown(pairs, wanted)
			if len(kept) == 0 {
				return &parsererror.OracleOutputMalformedError{Raw: raw}
			}
			result = models.BatchResult{Valid: valid && dropped == 0, Pairs: kept}
			return nil
		},
		parsererror.IsRetryable,
		func(attempt int, wait time.Duration, err error) {
			c.logger.WithError(err).Warn("Classification attempt failed, retrying",
				logging.Field{Key: logging.FieldAttempt, Value: attempt},
				logging.Field{Key: logging.FieldBackoff, Value: wait.Milliseconds()},
				logging.Field{Key: logging.FieldCount, Value: len(descriptions)})
		},
	)
	if err != nil {
		c.logger.WithError(err).Error("Classification batch abandoned",
			logging.Field{Key: logging.FieldCount, Value: len(descriptions)})
		return models.BatchResult{Valid: false}
	}

	if !result.Valid {
		c.logger.Warn("Classification response partially malformed",
			logging.Field{Key: logging.FieldCount, Value: len(descriptions)},
			logging.Field{Key: "pairs", Value: len(result.Pairs)})
	}
	return result
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.calls.Add(1)
	raw, err := c.backend.Complete(ctx, prompt)
	if err != nil {
		var te *parsererror.OracleTransportError
		if errors.As(err, &te) {
			return "", err
		}
		return "", &parsererror.OracleTransportError{Backend: c.backend.Name(), Err: err}
	}
	return raw, nil
}

// requested indexes a batch's descriptions exactly and by their folded form,
// so an echo with changed case or spacing still maps back to its row.
type requested struct {
	exact  map[string]struct{}
	folded map[string]string
}

func newRequested(descriptions []string) requested {
	r := requested{
		exact:  make(map[string]struct{}, len(descriptions)),
		folded: make(map[string]string, len(descriptions)),
	}
	for _, d := range descriptions {
		r.exact[d] = struct{}{}
		if _, ok := r.folded[foldDescription(d)]; !ok {
			r.folded[foldDescription(d)] = d
		}
	}
	return r
}

func (r requested) lookup(description string) (string, bool) {
	if _, ok := r.exact[description]; ok {
		return description, true
	}
	d, ok := r.folded[foldDescription(description)]
	return d, ok
}

func foldDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// keepKnown drops pairs whose description was not part of the request; they
// cannot be matched back to any row. dropped counts them.
func (c *Client) keepKnown(pairs []models.ReferencePair, wanted requested) (kept []models.ReferencePair, dropped int) {
	kept = make([]models.ReferencePair, 0, len(pairs))
	for _, p := range pairs {
		desc, ok := wanted.lookup(p.Description)
		if !ok {
			c.logger.Warn("Ignoring pair for unknown description",
				logging.Field{Key: logging.FieldDescription, Value: p.Description})
			dropped++
			continue
		}
		p.Description = desc
		kept = append(kept, p)
	}
	return kept, dropped
}
