package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() ReorderRequest {
	return ReorderRequest{
		Signals: &models.Signals{SignalCounts: models.SignalCounts{OpenTotal: 12, OverdueOpen: 4}},
		Quests: []QuestRef{
			{QuestKey: "clear_overdue", Title: "Clear 1 overdue item"},
			{QuestKey: "focus_finish", Title: "Finish a focus session"},
			{QuestKey: "complete_n_tasks", Title: "Complete 2 tasks"},
		},
	}
}

// chatServer fakes the chat completions endpoint, answering with content.
func chatServer(t *testing.T, status int, content string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Content != ReorderSystemPrompt {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error","code":"internal"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Reorder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		content    string
		delay      time.Duration
		wantOrder  []string
		wantReason string
	}{
		{
			name:      "valid ordering",
			status:    http.StatusOK,
			content:   `{"order":["focus_finish","clear_overdue","complete_n_tasks"],"rationale":"Start with focus."}`,
			wantOrder: []string{"focus_finish", "clear_overdue", "complete_n_tasks"},
		},
		{
			name:       "hallucinated key",
			status:     http.StatusOK,
			content:    `{"order":["focus_finish","drink_water","clear_overdue"],"rationale":"x"}`,
			wantReason: ReasonMalformed,
		},
		{
			name:       "not json",
			status:     http.StatusOK,
			content:    `Sure! Here is the order: focus_finish first.`,
			wantReason: ReasonMalformed,
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			wantReason: ReasonUpstream,
		},
		{
			name:       "timeout",
			status:     http.StatusOK,
			content:    `{"order":["focus_finish"],"rationale":"late"}`,
			delay:      2 * time.Second,
			wantReason: ReasonTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := chatServer(t, tt.status, tt.content, tt.delay)
			p := NewOpenAIProviderWithLogger("sk-test", srv.URL, "", 200*time.Millisecond, nil, true)

			got, err := p.Reorder(context.Background(), testRequest())
			if tt.wantReason != "" {
				require.Error(t, err)
				assert.Nil(t, got)
				if tt.wantReason == ReasonTimeout {
					// The HTTP client timeout and the context deadline race; both mean timeout.
					assert.Contains(t, []string{ReasonTimeout, ReasonUpstream}, DiscardReason(err))
					return
				}
				assert.Equal(t, tt.wantReason, DiscardReason(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, got.Order)
			assert.Equal(t, "Start with focus.", got.Rationale)
		})
	}
}

func TestParseReorderResponse(t *testing.T) {
	t.Parallel()

	sent := []string{"a_quest", "b_quest", "c_quest"}
	tests := []struct {
		name      string
		content   string
		wantOrder []string
		wantErr   bool
	}{
		{name: "full ordering", content: `{"order":["c_quest","a_quest","b_quest"],"rationale":"ok"}`, wantOrder: []string{"c_quest", "a_quest", "b_quest"}},
		{name: "partial ordering", content: `{"order":["b_quest"],"rationale":""}`, wantOrder: []string{"b_quest"}},
		{name: "surrounding whitespace", content: "\n {\"order\":[\"a_quest\"]} \n", wantOrder: []string{"a_quest"}},
		{name: "foreign key", content: `{"order":["a_quest","z_quest"]}`, wantErr: true},
		{name: "duplicate key", content: `{"order":["a_quest","a_quest"]}`, wantErr: true},
		{name: "empty key", content: `{"order":["a_quest",""]}`, wantErr: true},
		{name: "missing order", content: `{"rationale":"no order"}`, wantErr: true},
		{name: "empty order", content: `{"order":[]}`, wantErr: true},
		{name: "order wrong type", content: `{"order":"a_quest"}`, wantErr: true},
		{name: "prose", content: `a_quest, b_quest, c_quest`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReorderResponse(tt.content, sent)
			if tt.wantErr {
				var malformed *MalformedAIResponseError
				require.ErrorAs(t, err, &malformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, got.Order)
		})
	}
}

func TestParseReorderResponse_CapsRationale(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("r", MaxRationaleLength*2)
	got, err := ParseReorderResponse(`{"order":["a_quest"],"rationale":"`+long+"\u0007"+`"}`, []string{"a_quest"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Rationale), MaxRationaleLength+len("..."))
	assert.NotContains(t, got.Rationale, "\u0007")
}

func TestDiscardReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, ReasonTimeout},
		{"wrapped deadline", errors.Join(errors.New("post"), context.DeadlineExceeded), ReasonTimeout},
		{"malformed", &MalformedAIResponseError{Reason: "invalid json"}, ReasonMalformed},
		{"rate limited", &APIError{StatusCode: 429}, ReasonRateLimited},
		{"quota", &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}, ReasonQuotaExceeded},
		{"other", errors.New("connection refused"), ReasonUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DiscardReason(tt.err))
		})
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewDefaultRegistry(nil, false)

	_, err := registry.GetProvider("openai", map[string]string{})
	assert.Error(t, err, "missing api key must fail")

	_, err = registry.GetProvider("openai", map[string]string{"api_key": "sk-test", "timeout": "never"})
	assert.Error(t, err, "bad timeout must fail")

	p, err := registry.GetProvider("openai", map[string]string{"api_key": "sk-test", "timeout": "2s"})
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = registry.GetProvider("anthropic", nil)
	var notFound *ErrProviderNotFound
	assert.ErrorAs(t, err, &notFound)
}
