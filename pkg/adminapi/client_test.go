package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, baseURL, token string, opts ...func(*Config)) *Client {
	t.Helper()
	store := NewMemoryTokenStore()
	if token != "" {
		require.NoError(t, store.SaveToken(context.Background(), DefaultTokenKey, token))
	}
	session, err := NewSession(context.Background(), store, "")
	require.NoError(t, err)
	cfg := Config{BaseURL: baseURL, Session: session, Logger: quietLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url is required")
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotContentType, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.c"}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "tok-123")
	user, err := Request[User](context.Background(), client, http.MethodGet, "/api/admin/users/u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var present bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "")
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/ping", nil))
	assert.False(t, present)
}

func TestClientCallerHeadersOverrideDefaults(t *testing.T) {
	var gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "tok-123")
	err := client.Do(context.Background(), http.MethodGet, "/x", nil,
		WithHeader("Authorization", "Bearer override"),
		WithHeader("Accept", "text/csv"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer override", gotAuth)
	assert.Equal(t, "text/csv", gotAccept)
}

func TestClientEncodesBodyAndQuery(t *testing.T) {
	var gotQuery string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "")
	err := client.Do(context.Background(), http.MethodPost, "/q", nil,
		WithQuery(PageRequest{Page: 2, Size: 20, Status: "PENDING"}),
		WithBody(map[string]any{"status": "APPROVED"}))
	require.NoError(t, err)
	assert.Equal(t, "page=2&size=20&status=PENDING", gotQuery)
	assert.Equal(t, "APPROVED", gotBody["status"])
}

func TestClientEmptySuccessBodyLeavesTargetUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "")
	target := User{ID: "keep"}
	require.NoError(t, client.Do(context.Background(), http.MethodDelete, "/x", &target))
	assert.Equal(t, "keep", target.ID)
}

func TestClientUndecodableSuccessIsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "")
	_, err := Request[User](context.Background(), client, http.MethodGet, "/x")
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
}

func TestClientErrorMessages(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    ErrorKind
		message string
	}{
		{"error field", http.StatusBadRequest, `{"error":"Email already taken","message":"ignored"}`, KindValidation, "Email already taken"},
		{"message field", http.StatusConflict, `{"message":"Deal already approved"}`, KindValidation, "Deal already approved"},
		{"raw text", http.StatusInternalServerError, "database unavailable", KindServer, "database unavailable"},
		{"empty body", http.StatusBadGateway, "", KindServer, "Request failed with status 502"},
		{"object without fields", http.StatusInternalServerError, `{"code":17}`, KindServer, "Request failed with status 500"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"Unauthorized"}`, KindUnauthorized, "Unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			client := newTestClient(t, server.URL, "")
			err := client.Do(context.Background(), http.MethodGet, "/x", nil)
			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.kind, apiErr.Kind)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestClientUnauthorizedClearsSessionAndNotifiesBoundary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	t.Cleanup(server.Close)

	var notified int32
	client := newTestClient(t, server.URL, "expired", func(cfg *Config) {
		cfg.OnUnauthorized = func(ctx context.Context, err *APIError) {
			atomic.AddInt32(&notified, 1)
		}
	})
	require.True(t, client.Session().Authenticated())

	_, err := NewAPI(client).Users.List(context.Background(), PageRequest{})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Unauthorized", MessageOf(err))
	assert.False(t, client.Session().Authenticated())
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))
}

func TestClientRejectedLoginLeavesBoundaryQuiet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid email or password"}`))
	}))
	t.Cleanup(server.Close)

	var notified int32
	client := newTestClient(t, server.URL, "", func(cfg *Config) {
		cfg.OnUnauthorized = func(ctx context.Context, err *APIError) {
			atomic.AddInt32(&notified, 1)
		}
	})

	_, err := NewAPI(client).Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Invalid email or password", MessageOf(err))
	assert.False(t, client.Session().Authenticated())
	assert.Equal(t, int32(0), atomic.LoadInt32(&notified))
}

func TestClientNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url, "tok")
	err := client.Do(context.Background(), http.MethodGet, "/x", nil)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.NotEmpty(t, err.Error())
	assert.True(t, client.Session().Authenticated(), "network failures keep the session")
}

func TestClientBreakerOpensAfterServerFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "", func(cfg *Config) {
		cfg.Breaker = NewBreaker("test")
	})
	for i := 0; i < 3; i++ {
		err := client.Do(context.Background(), http.MethodGet, "/x", nil)
		require.Equal(t, KindServer, KindOf(err))
	}
	err := client.Do(context.Background(), http.MethodGet, "/x", nil)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClientBreakerIgnoresValidationFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, "", func(cfg *Config) {
		cfg.Breaker = NewBreaker("validation")
	})
	for i := 0; i < 5; i++ {
		err := client.Do(context.Background(), http.MethodGet, "/x", nil)
		require.Equal(t, KindValidation, KindOf(err))
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestClientMainBackendAndRawDownload(t *testing.T) {
	admin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("admin backend should not be called, got %s", r.URL.Path)
	}))
	t.Cleanup(admin.Close)
	main := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/languages/enabled":
			_, _ = w.Write([]byte(`[{"id":"en","code":"en","enabled":true}]`))
		case "/api/city-reports/r1/download":
			assert.Equal(t, "*/*", r.Header.Get("Accept"))
			_, _ = w.Write([]byte("%PDF-1.4"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(main.Close)

	client := newTestClient(t, admin.URL, "tok", func(cfg *Config) {
		cfg.MainBaseURL = main.URL
	})
	api := NewAPI(client)

	langs, err := api.EnabledLanguages(context.Background())
	require.NoError(t, err)
	require.Len(t, langs, 1)
	assert.Equal(t, "en", langs[0].Code)

	var buf bytes.Buffer
	require.NoError(t, api.DownloadCityReport(context.Background(), "r1", &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF"))
}
