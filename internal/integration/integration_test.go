// Package integration wires a real cache server to a real store server
// over loopback HTTP and exercises the paths that cross the boundary:
// write-through on set, and fallback populate on a cache miss.
package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corekv/corekv/cacheengine"
	"github.com/corekv/corekv/httpapi/cacheserver"
	"github.com/corekv/corekv/httpapi/storeserver"
	"github.com/corekv/corekv/service"
	"github.com/corekv/corekv/storageclient"
	"github.com/corekv/corekv/store"
	"github.com/corekv/corekv/storemanager"
	"github.com/stretchr/testify/require"
)

type stack struct {
	cacheURL string
}

func noPeriodicBackup() *time.Duration {
	d := time.Duration(0)
	return &d
}

func newStack(t *testing.T) stack {
	t.Helper()

	dir := t.TempDir()
	st := store.New(dir, nil)
	require.NoError(t, st.Initialize())
	manager := storemanager.New(st, storemanager.Config{DataPath: dir, BackupInterval: noPeriodicBackup()}, nil)
	t.Cleanup(manager.Shutdown)

	storeSrv := httptest.NewServer(storeserver.New(manager, st, nil, 0, nil))
	t.Cleanup(storeSrv.Close)

	engine := cacheengine.New(cacheengine.Config{})
	client := storageclient.New(storeSrv.URL, nil)
	svc := service.New(engine, client, nil)

	cacheSrv := httptest.NewServer(cacheserver.New(svc, nil, nil))
	t.Cleanup(cacheSrv.Close)

	return stack{cacheURL: cacheSrv.URL}
}

func getValue(t *testing.T, url string) (any, int) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Value any `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data.Value, resp.StatusCode
}

// TestWriteThroughAndFallbackPopulate persists a key through the cache
// surface, wipes the cache, and checks that a fallback read repopulates it
// from the store: the second, fallback-less read must hit the cache.
func TestWriteThroughAndFallbackPopulate(t *testing.T) {
	s := newStack(t)

	body, _ := json.Marshal(map[string]any{
		"key":     "u",
		"value":   map[string]any{"n": 1},
		"persist": true,
	})
	resp, err := http.Post(s.cacheURL+"/api/keys", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, s.cacheURL+"/api/cache", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Miss in the cache, hit in the store, populate on the way back.
	v, status := getValue(t, s.cacheURL+"/api/keys/u?fallback=true")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"n": float64(1)}, v)

	// Now present without fallback: proof the fallback populated the cache.
	v, status = getValue(t, s.cacheURL+"/api/keys/u")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"n": float64(1)}, v)
}

// TestMissWithoutFallbackStaysAMiss checks the inverse: with fallback off,
// a durable key that is absent from the cache is a plain 404.
func TestMissWithoutFallbackStaysAMiss(t *testing.T) {
	s := newStack(t)

	body, _ := json.Marshal(map[string]any{"key": "k", "value": "v", "persist": true})
	resp, err := http.Post(s.cacheURL+"/api/keys", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, s.cacheURL+"/api/cache", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(s.cacheURL + "/api/keys/k")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestStoreOutageDegradesToCacheSemantics kills the store mid-flight: a
// persisted set still succeeds cache-side, and a fallback get of an
// uncached key is just a 404, never a 5xx.
func TestStoreOutageDegradesToCacheSemantics(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, nil)
	require.NoError(t, st.Initialize())
	manager := storemanager.New(st, storemanager.Config{DataPath: dir, BackupInterval: noPeriodicBackup()}, nil)
	t.Cleanup(manager.Shutdown)

	storeSrv := httptest.NewServer(storeserver.New(manager, st, nil, 0, nil))

	engine := cacheengine.New(cacheengine.Config{})
	client := storageclient.New(storeSrv.URL, nil)
	svc := service.New(engine, client, nil)
	cacheSrv := httptest.NewServer(cacheserver.New(svc, nil, nil))
	t.Cleanup(cacheSrv.Close)

	storeSrv.Close() // the outage

	body, _ := json.Marshal(map[string]any{"key": "k", "value": "v", "persist": true})
	resp, err := http.Post(cacheSrv.URL+"/api/keys", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, "write-through failure must not fail the cache set")

	resp, err = http.Get(cacheSrv.URL + "/api/keys/other?fallback=true")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
