package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend replays responses in order; the last one repeats.
type scriptedBackend struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedBackend) Name() string { return "stub" }

func (s *scriptedBackend) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func (s *scriptedBackend) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type recordedSleeps struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

func testPolicy(sleeps *recordedSleeps) RetryPolicy {
	p := DefaultRetryPolicy()
	p.Sleep = sleeps.sleep
	p.Rand = func() float64 { return 1 }
	return p
}

var testCategories = []string{"Groceries", "Coffee Shops", "Transportation"}

func newTestClient(backend Backend, sleeps *recordedSleeps) *Client {
	return NewClient(backend, testCategories, Options{Retry: testPolicy(sleeps)}, logging.NewMockLogger())
}

func TestClassifyBatch_Success(t *testing.T) {
	backend := &scriptedBackend{responses: []string{
		"```json\n[[\"ALDI 123\", \"Groceries\"], ['UBER TRIP', 'transportation']]\n```",
	}}
	client := newTestClient(backend, &recordedSleeps{})

	result := client.ClassifyBatch(context.Background(), []string{"ALDI 123", "UBER TRIP"})

	assert.True(t, result.Valid)
	assert.ElementsMatch(t, []models.ReferencePair{
		{Description: "ALDI 123", Category: "Groceries"},
		{Description: "UBER TRIP", Category: "Transportation"},
	}, result.Pairs)
	assert.Equal(t, int64(1), client.Calls())

	prompt := backend.prompts[0]
	assert.Contains(t, prompt, "ALDI 123\nUBER TRIP")
	assert.Contains(t, prompt, "Groceries, Coffee Shops, Transportation, Other")
}

func TestClassifyBatch_PartialParseKeepsGoodPairs(t *testing.T) {
	backend := &scriptedBackend{responses: []string{
		`[["ALDI 123", "Groceries"], [UBER TRIP, Transportation], ["CAFE", "Unknown Category"]]`,
	}}
	client := newTestClient(backend, &recordedSleeps{})

	result := client.ClassifyBatch(context.Background(), []string{"ALDI 123", "UBER TRIP", "CAFE"})

	assert.False(t, result.Valid)
	assert.Equal(t, []models.ReferencePair{
		{Description: "ALDI 123", Category: "Groceries"},
		{Description: "CAFE", Category: models.CategoryOther},
	}, result.Pairs)
	assert.Equal(t, 1, backend.calls(), "partial output is not retried")
}

func TestClassifyBatch_RetriesTransportThenSucceeds(t *testing.T) {
	backend := &scriptedBackend{
		errs:      []error{errors.New("connection reset"), errors.New("503")},
		responses: []string{"", "", `[["ALDI", "Groceries"]]`},
	}
	sleeps := &recordedSleeps{}
	client := newTestClient(backend, sleeps)

	result := client.ClassifyBatch(context.Background(), []string{"ALDI"})

	assert.True(t, result.Valid)
	assert.Len(t, result.Pairs, 1)
	assert.Equal(t, 3, backend.calls())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps.waits)
}

func TestClassifyBatch_ExhaustionDegradesToInvalid(t *testing.T) {
	backend := &scriptedBackend{responses: []string{"I cannot help with that."}}
	sleeps := &recordedSleeps{}
	client := newTestClient(backend, sleeps)

	result := client.ClassifyBatch(context.Background(), []string{"ALDI"})

	assert.False(t, result.Valid)
	assert.Empty(t, result.Pairs)
	assert.Equal(t, 6, backend.calls())
	require.Len(t, sleeps.waits, 5)
	for _, w := range sleeps.waits {
		assert.GreaterOrEqual(t, w, time.Second)
		assert.LessOrEqual(t, w, 20*time.Second)
	}
	assert.Equal(t, 20*time.Second, sleeps.waits[4])
}

func TestClassifyBatch_DropsUnknownDescriptions(t *testing.T) {
	backend := &scriptedBackend{responses: []string{`[["ALDI", "Groceries"], ["aldi store", "Groceries"]]`}}
	client := newTestClient(backend, &recordedSleeps{})

	result := client.ClassifyBatch(context.Background(), []string{"ALDI"})
	assert.Equal(t, []models.ReferencePair{{Description: "ALDI", Category: "Groceries"}}, result.Pairs)
	assert.False(t, result.Valid, "a dropped pair marks the batch invalid")
	assert.Equal(t, 1, backend.calls())
}

func TestClassifyBatch_MapsEchoWithChangedCase(t *testing.T) {
	backend := &scriptedBackend{responses: []string{`[["aldi  123", "Groceries"], ["Uber Trip", "Transportation"]]`}}
	client := newTestClient(backend, &recordedSleeps{})

	result := client.ClassifyBatch(context.Background(), []string{"ALDI 123", "UBER TRIP"})
	assert.True(t, result.Valid)
	assert.Equal(t, []models.ReferencePair{
		{Description: "ALDI 123", Category: "Groceries"},
		{Description: "UBER TRIP", Category: "Transportation"},
	}, result.Pairs)
}

func TestClassifyBatch_RetriesWhenNoPairMatchesRequest(t *testing.T) {
	backend := &scriptedBackend{responses: []string{
		`[["SOMETHING ELSE", "Groceries"]]`,
		`[["ALDI", "Groceries"]]`,
	}}
	sleeps := &recordedSleeps{}
	client := newTestClient(backend, sleeps)

	result := client.ClassifyBatch(context.Background(), []string{"ALDI"})
	assert.True(t, result.Valid)
	assert.Equal(t, []models.ReferencePair{{Description: "ALDI", Category: "Groceries"}}, result.Pairs)
	assert.Equal(t, 2, backend.calls())
	assert.Len(t, sleeps.waits, 1)
}

func TestClassifyBatch_Empty(t *testing.T) {
	backend := &scriptedBackend{}
	result := newTestClient(backend, &recordedSleeps{}).ClassifyBatch(context.Background(), nil)
	assert.True(t, result.Valid)
	assert.Zero(t, backend.calls())
}

func TestClassifyBatch_CanceledContext(t *testing.T) {
	backend := &scriptedBackend{errs: []error{errors.New("down")}}
	policy := DefaultRetryPolicy()
	client := NewClient(backend, testCategories, Options{Retry: policy}, logging.NewMockLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := client.ClassifyBatch(ctx, []string{"ALDI"})
	assert.False(t, result.Valid)
	assert.Equal(t, 1, backend.calls())
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := DefaultRetryPolicy()

	p.Rand = func() float64 { return 0 }
	for attempt := 1; attempt <= 10; attempt++ {
		assert.Equal(t, time.Second, p.Backoff(attempt))
	}

	p.Rand = func() float64 { return 0.999999 }
	assert.InDelta(t, float64(2*time.Second), float64(p.Backoff(1)), float64(time.Millisecond))
	assert.InDelta(t, float64(16*time.Second), float64(p.Backoff(4)), float64(time.Millisecond))
	assert.InDelta(t, float64(20*time.Second), float64(p.Backoff(9)), float64(time.Millisecond))
}

func TestRetryPolicy_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := DefaultRetryPolicy().Do(context.Background(), func(int) error {
		calls++
		return errors.New("fatal")
	}, parsererror.IsRetryable, nil)

	assert.EqualError(t, err, "fatal")
	assert.Equal(t, 1, calls)
}

func TestParseResponse(t *testing.T) {
	vocab := NewVocabulary(testCategories, "")

	pairs, valid, err := ParseResponse(`[["Say \"hi\"", "Coffee Shops"], ['O\'Brien', 'groceries']]`, vocab)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, []models.ReferencePair{
		{Description: `Say "hi"`, Category: "Coffee Shops"},
		{Description: "O'Brien", Category: "Groceries"},
	}, pairs)

	_, _, err = ParseResponse("no pairs here", vocab)
	var malformed *parsererror.OracleOutputMalformedError
	assert.True(t, errors.As(err, &malformed))

	_, valid, err = ParseResponse(`[["a", "Groceries"], ["b"]]`, vocab)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestParseResponse_Shapes(t *testing.T) {
	vocab := NewVocabulary(testCategories, "")

	tests := []struct {
		name  string
		raw   string
		pairs []models.ReferencePair
		valid bool
	}{
		{
			name: "brackets inside a description",
			raw:  `[["AMZN MKTP [US] 123", "Groceries"], ["COFFEE", "Coffee Shops"]]`,
			pairs: []models.ReferencePair{
				{Description: "AMZN MKTP [US] 123", Category: "Groceries"},
				{Description: "COFFEE", Category: "Coffee Shops"},
			},
			valid: true,
		},
		{
			name:  "brackets inside single quotes",
			raw:   `[['[PENDING] TAXI', 'Transportation']]`,
			pairs: []models.ReferencePair{{Description: "[PENDING] TAXI", Category: "Transportation"}},
			valid: true,
		},
		{
			name: "every fenced block is read",
			raw:  "Here you go:\n```json\n[[\"A\", \"Groceries\"]]\n```\nand the rest:\n```\n[[\"B\", \"Coffee Shops\"]]\n```",
			pairs: []models.ReferencePair{
				{Description: "A", Category: "Groceries"},
				{Description: "B", Category: "Coffee Shops"},
			},
			valid: true,
		},
		{
			name:  "pretty printed",
			raw:   "[\n  [\n    \"A\",\n    \"Groceries\"\n  ]\n]",
			pairs: []models.ReferencePair{{Description: "A", Category: "Groceries"}},
			valid: true,
		},
		{
			name:  "truncated tail",
			raw:   `[["A", "Groceries"], ["B", "Coff`,
			pairs: []models.ReferencePair{{Description: "A", Category: "Groceries"}},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, valid, err := ParseResponse(tt.raw, vocab)
			require.NoError(t, err)
			assert.Equal(t, tt.pairs, pairs)
			assert.Equal(t, tt.valid, valid)
		})
	}
}

func TestVocabulary(t *testing.T) {
	vocab := NewVocabulary([]string{"Groceries", "groceries", "", "Other"}, "")
	assert.Equal(t, []string{"Groceries", "Other"}, vocab.Names())
	assert.Equal(t, "Groceries", vocab.Resolve(" GROCERIES "))
	assert.Equal(t, "Other", vocab.Resolve("Snacks"))
}

func TestOpenAIBackend_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		assert.True(t, strings.HasPrefix(req.Messages[1].Content, "You categorize"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[[\"a\", \"Groceries\"]]"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	backend, err := NewOpenAIBackend("test-key", "gpt-test", server.URL+"/v1/")
	require.NoError(t, err)

	out, err := backend.Complete(context.Background(), BuildPrompt([]string{"a"}, testCategories))
	require.NoError(t, err)
	assert.Equal(t, `[["a", "Groceries"]]`, out)
}

func TestOpenAIBackend_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	backend, err := NewOpenAIBackend("k", "", server.URL)
	require.NoError(t, err)

	_, err = backend.Complete(context.Background(), "x")
	assert.ErrorContains(t, err, "status 429")
}

func TestNewBackend(t *testing.T) {
	_, err := NewBackend(context.Background(), BackendConfig{Provider: "openai"})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = NewBackend(context.Background(), BackendConfig{Provider: "gemini"})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	_, err = NewBackend(context.Background(), BackendConfig{Provider: "llama", APIKey: "x"})
	assert.ErrorContains(t, err, "unsupported")

	b, err := NewBackend(context.Background(), BackendConfig{Provider: "OpenAI", APIKey: "x"})
	require.NoError(t, err)
	assert.Equal(t, "openai", b.Name())
}
