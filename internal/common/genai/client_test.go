package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Chat(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		delay   time.Duration
		want    string
		wantErr error
	}{
		{
			name:   "ok",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"content":"  Tea and Samosa  "}}]}`,
			want:   "Tea and Samosa",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":{"message":"boom"}}`,
			wantErr: ErrRequestFailed,
		},
		{
			name:    "not json",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: ErrMalformedReply,
		},
		{
			name:    "missing content",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: ErrMalformedReply,
		},
		{
			name:    "blank content",
			status:  http.StatusOK,
			body:    `{"choices":[{"message":{"content":"   "}}]}`,
			wantErr: ErrEmptyReply,
		},
		{
			name:    "timeout",
			status:  http.StatusOK,
			body:    `{"choices":[{"message":{"content":"late"}}]}`,
			delay:   200 * time.Millisecond,
			wantErr: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ChatRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				_ = json.NewDecoder(r.Body).Decode(&got)
				if tt.delay > 0 {
					time.Sleep(tt.delay)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			c := NewClient(server.URL+"/", "test-key")
			reply, err := c.Chat(ctx, ChatRequest{
				Model:       "gpt-4",
				Messages:    []Message{System("sys"), User("hi")},
				Temperature: 0.1,
				MaxTokens:   300,
			})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
			assert.Equal(t, "gpt-4", got.Model)
			assert.Equal(t, 300, got.MaxTokens)
			assert.Len(t, got.Messages, 2)
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient("http://localhost", "")
	assert.False(t, c.Configured())

	_, err := c.Chat(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"Sure! Here it is:\n{\"location\":\"Charminar\"}\nThanks", `{"location":"Charminar"}`, true},
		{`no json here`, "", false},
		{`{broken`, "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractJSONObject(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMatchingLines(t *testing.T) {
	reply := "Advice:\n" +
		"1. Sell cold drinks near the bus stop before noon\n" +
		"- tip\n" +
		"* Customers prefer chilled water in this heat\n" +
		"• Keep selling ice cream through the evening rush"

	got := MatchingLines(reply, []string{"sell", "customer"}, 200, 2)
	assert.Equal(t, []string{
		"Sell cold drinks near the bus stop before noon",
		"Customers prefer chilled water in this heat",
	}, got)

	assert.Empty(t, MatchingLines(reply, []string{"sell"}, 30, 3))
	assert.Empty(t, MatchingLines(reply, []string{"sell"}, 200, 0))
	assert.Equal(t, "Customers prefer chilled water in this heat", FirstLine(reply, []string{"customer"}, 200))
	assert.Equal(t, "", FirstLine(reply, []string{"umbrella"}, 200))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "timeout", Reason(ErrTimeout))
	assert.Equal(t, "malformed_reply", Reason(ErrEmptyReply))
	assert.Equal(t, "request_failed", Reason(context.Canceled))
}
