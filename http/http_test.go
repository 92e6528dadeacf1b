package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantMsg    string
		wantUnwrap error
	}{
		{
			name: "verbatim body",
			err: &APIError{
				Service:    "reviewdesk",
				StatusCode: 404,
				Body:       "content not found",
				Endpoint:   "/content/x/approve",
			},
			wantMsg:    "reviewdesk API error (404) at /content/x/approve: content not found",
			wantUnwrap: ErrNotFound,
		},
		{
			name: "with request ID",
			err: &APIError{
				Service:    "reviewdesk",
				StatusCode: 500,
				Body:       "boom",
				Endpoint:   "/inbox",
				RequestID:  "abc123",
			},
			wantMsg:    "reviewdesk API error (500) at /inbox [abc123]: boom",
			wantUnwrap: ErrServerError,
		},
		{
			name: "unauthorized",
			err: &APIError{
				Service:    "reviewdesk",
				StatusCode: 401,
				Body:       "invalid token",
				Endpoint:   "/me",
			},
			wantMsg:    "reviewdesk API error (401) at /me: invalid token",
			wantUnwrap: ErrUnauthorized,
		},
		{
			name: "forbidden",
			err: &APIError{
				Service:    "reviewdesk",
				StatusCode: 403,
				Body:       "only approver_b may audit",
				Endpoint:   "/content/x/audit-image",
			},
			wantMsg:    "reviewdesk API error (403) at /content/x/audit-image: only approver_b may audit",
			wantUnwrap: ErrForbidden,
		},
		{
			name: "conflict",
			err: &APIError{
				Service:    "reviewdesk",
				StatusCode: 409,
				Body:       "content x is APPROVED",
				Endpoint:   "/content/x/reject",
			},
			wantMsg:    "reviewdesk API error (409) at /content/x/reject: content x is APPROVED",
			wantUnwrap: ErrConflict,
		},
		{
			name: "empty body falls back to status text",
			err: &APIError{
				Service:    "reviewdesk",
				StatusCode: 429,
				Endpoint:   "/inbox",
			},
			wantMsg:    "reviewdesk API error (429) at /inbox: Too Many Requests",
			wantUnwrap: ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantUnwrap) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantUnwrap)
			}
		})
	}
}

func TestServerText(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &APIError{StatusCode: 409, Body: "  already reviewed\n"})
	got, ok := ServerText(wrapped)
	if !ok || got != "already reviewed" {
		t.Errorf("ServerText() = %q, %v", got, ok)
	}

	if _, ok := ServerText(errors.New("plain")); ok {
		t.Error("plain error should carry no server text")
	}
}

func TestBearerHeader(t *testing.T) {
	if h := BearerHeader(""); h != nil {
		t.Errorf("BearerHeader(\"\") = %v, want nil", h)
	}
	if got := BearerHeader("tok")["Authorization"]; got != "Bearer tok" {
		t.Errorf("Authorization = %q", got)
	}
}

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		BaseURL:     url,
		ServiceName: "test",
		RetryWait:   time.Millisecond,
	})
}

func TestClient(t *testing.T) {
	t.Run("successful GET", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "test"})
		}))
		defer server.Close()

		var result map[string]string
		err := newTestClient(server.URL).Get(context.Background(), "/test", BearerHeader("tok"), &result)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if result["name"] != "test" {
			t.Errorf("got name = %q, want %q", result["name"], "test")
		}
	})

	t.Run("successful POST", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("got method %s, want POST", r.Method)
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["comment"] != "ok" {
				t.Errorf("got body comment = %q", body["comment"])
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "123"})
		}))
		defer server.Close()

		var result map[string]string
		err := newTestClient(server.URL).Post(context.Background(), "/create", nil, map[string]string{"comment": "ok"}, &result)
		if err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		if result["id"] != "123" {
			t.Errorf("got id = %q, want %q", result["id"], "123")
		}
	})

	t.Run("error body is kept verbatim", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"detail":"Only approver_b"}`)
		}))
		defer server.Close()

		err := newTestClient(server.URL).Get(context.Background(), "/x", nil, nil)
		if !IsForbidden(err) {
			t.Fatalf("expected forbidden, got %v", err)
		}
		text, _ := ServerText(err)
		if text != `{"detail":"Only approver_b"}` {
			t.Errorf("ServerText = %q", text)
		}
	})

	t.Run("GET answered with an error status is not retried", func(t *testing.T) {
		for _, status := range []int{http.StatusServiceUnavailable, http.StatusTooManyRequests} {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
				_, _ = io.WriteString(w, "inbox unavailable")
			}))

			client := NewClient(ClientConfig{
				BaseURL:     server.URL,
				ServiceName: "test",
				MaxRetries:  3,
				RetryWait:   time.Second,
			})
			start := time.Now()
			err := client.Get(context.Background(), "/inbox", nil, nil)
			elapsed := time.Since(start)
			server.Close()

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != status {
				t.Fatalf("status %d: error = %v", status, err)
			}
			if text, _ := ServerText(err); text != "inbox unavailable" {
				t.Errorf("status %d: ServerText = %q", status, text)
			}
			if calls.Load() != 1 {
				t.Errorf("status %d: calls = %d, want 1", status, calls.Load())
			}
			if elapsed >= time.Second {
				t.Errorf("status %d: took %v, no retry wait expected", status, elapsed)
			}
		}
	})

	t.Run("GET retries a dropped connection", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				conn, _, err := w.(http.Hijacker).Hijack()
				if err != nil {
					t.Errorf("Hijack: %v", err)
					return
				}
				_ = conn.Close()
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
		}))
		defer server.Close()

		var result map[string]string
		if err := newTestClient(server.URL).Get(context.Background(), "/inbox", nil, &result); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if calls.Load() != 2 || result["ok"] != "yes" {
			t.Errorf("calls = %d, result = %v", calls.Load(), result)
		}
	})

	t.Run("POST is sent exactly once", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down")
		}))
		defer server.Close()

		err := newTestClient(server.URL).Post(context.Background(), "/content/1/approve", nil, map[string]string{}, nil)
		if !errors.Is(err, ErrServerError) {
			t.Fatalf("expected server error, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
		if text, _ := ServerText(err); text != "upstream down" {
			t.Errorf("ServerText = %q", text)
		}
	})

	t.Run("multipart upload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
			}
			f, hdr, err := r.FormFile("file")
			if err != nil {
				t.Errorf("FormFile: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer f.Close()
			data, _ := io.ReadAll(f)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name": hdr.Filename,
				"size": len(data),
				"type": hdr.Header.Get("Content-Type"),
			})
		}))
		defer server.Close()

		var result struct {
			Name string `json:"name"`
			Size int    `json:"size"`
			Type string `json:"type"`
		}
		err := newTestClient(server.URL).PostMultipart(context.Background(), "/upload", nil, FilePart{
			Field:       "file",
			Filename:    "banner.png",
			ContentType: "image/png",
			Data:        []byte("pngdata"),
		}, &result)
		if err != nil {
			t.Fatalf("PostMultipart() error = %v", err)
		}
		if result.Name != "banner.png" || result.Size != 7 || result.Type != "image/png" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("before request hook", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Client") != "reviewdesk" {
				t.Errorf("X-Client = %q", r.Header.Get("X-Client"))
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:       server.URL + "/",
			ServiceName:   "test",
			BeforeRequest: func(req *http.Request) { req.Header.Set("X-Client", "reviewdesk") },
		})
		if err := client.Get(context.Background(), "/ping", nil, nil); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if client.BaseURL() != server.URL {
			t.Errorf("BaseURL() = %q", client.BaseURL())
		}
	})
}
