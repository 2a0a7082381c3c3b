package storageclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corekv/corekv/storageclient"
	"github.com/stretchr/testify/require"
)

func TestAvailableReflectsHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := storageclient.New(srv.URL, nil)
	require.True(t, c.Available(context.Background()))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	stored := map[string]any{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/data", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Key   string `json:"key"`
			Value any    `json:"value"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		stored[payload.Key] = payload.Value

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"key": payload.Key},
		})
	})
	mux.HandleFunc("GET /api/data/{key}", func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		v, ok := stored[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "not_found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"key": key, "value": v},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := storageclient.New(srv.URL, nil)
	ok := c.Save(context.Background(), "greeting", "hello")
	require.True(t, ok)

	v, found := c.Load(context.Background(), "greeting")
	require.True(t, found)
	require.Equal(t, "hello", v)
}

func TestLoadMissingReturnsFalse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data/{key}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "not_found"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := storageclient.New(srv.URL, nil)
	_, found := c.Load(context.Background(), "missing")
	require.False(t, found)
}

func TestDisabledClientPerformsNoIO(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := storageclient.New(srv.URL, nil)
	c.Disable()
	require.False(t, c.IsEnabled())

	require.False(t, c.Available(context.Background()))
	require.False(t, c.Save(context.Background(), "k", "v"))
	_, found := c.Load(context.Background(), "k")
	require.False(t, found)
	require.False(t, c.Delete(context.Background(), "k"))
	require.False(t, called)

	c.Enable()
	require.True(t, c.Available(context.Background()))
}

func TestUnreachableServerIsTreatedAsUnavailable(t *testing.T) {
	c := storageclient.New("http://127.0.0.1:1", nil)
	require.False(t, c.Available(context.Background()))
	require.False(t, c.Save(context.Background(), "k", "v"))
}
