package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/internal/iocache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newClassServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/classbydin/02242963", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"class": "statins"})
	})
	mux.HandleFunc("/classbyatc/C10AA05", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"class": "HMG CoA reductase inhibitors"})
	})
	mux.HandleFunc("/classbyatc/BROKEN", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/classbyatc/EMPTY", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestRoute tests code system routing.
func TestRoute(t *testing.T) {
	tests := []struct {
		code, system, want string
		wantErr            error
	}{
		{"02242963", "hc-din", "/classbydin/02242963", nil},
		{"C10AA05", "whoatc", "/classbyatc/C10AA05", nil},
		{"C10AA05", "WHOATC", "/classbyatc/C10AA05", nil},
		{"123", "ndc", "", contract.ErrUnsupportedCodeSystem},
	}
	for _, tt := range tests {
		t.Run(tt.system, func(t *testing.T) {
			got, err := Route(tt.code, tt.system)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Route("", "hc-din")
	assert.Error(t, err)
}

// TestHTTPClientClassify tests lookups against a fake service.
func TestHTTPClientClassify(t *testing.T) {
	srv := newClassServer(t)
	client := NewHTTPClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	class, err := client.Classify(ctx, "02242963", "hc-din")
	require.NoError(t, err)
	assert.Equal(t, "statins", class)

	class, err = client.Classify(ctx, "C10AA05", "whoatc")
	require.NoError(t, err)
	assert.Equal(t, "HMG CoA reductase inhibitors", class)

	_, err = client.Classify(ctx, "UNKNOWN", "whoatc")
	assert.ErrorIs(t, err, contract.ErrClassNotFound)

	_, err = client.Classify(ctx, "EMPTY", "whoatc")
	assert.ErrorIs(t, err, contract.ErrClassNotFound)

	_, err = client.Classify(ctx, "BROKEN", "whoatc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, contract.ErrClassNotFound))
	assert.Contains(t, err.Error(), "500")

	_, err = client.Classify(ctx, "1", "snomed")
	assert.ErrorIs(t, err, contract.ErrUnsupportedCodeSystem)
}

// TestCachedServiceHit tests that cached classes skip the remote service.
func TestCachedServiceHit(t *testing.T) {
	cache := &iocache.MockClassCache{}
	data, _ := json.Marshal(classResponse{Class: "statins"})
	cache.On("Get", "class:hc-din:02242963").Return(data, currentCacheVersion, time.Now().Unix(), nil)

	remote := &contract.MockClassificationService{}
	svc := NewCachedService(remote, cache)

	class, err := svc.Classify(context.Background(), "02242963", "HC-DIN")
	require.NoError(t, err)
	assert.Equal(t, "statins", class)
	remote.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything)
}

// TestCachedServiceMiss tests that misses and stale entries call through and store.
func TestCachedServiceMiss(t *testing.T) {
	stale := time.Now().Add(-2 * cacheTTL).Unix()
	cases := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
	}{
		{"not cached", nil, 0, int64(0), errors.New("no rows")},
		{"old version", []byte(`{"class":"old"}`), currentCacheVersion + 1, time.Now().Unix(), nil},
		{"stale", []byte(`{"class":"old"}`), currentCacheVersion, stale, nil},
		{"corrupt", []byte(`not json`), currentCacheVersion, time.Now().Unix(), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := &iocache.MockClassCache{}
			cache.On("Get", "class:whoatc:C10AA05").Return(tc.data, tc.version, tc.ts, tc.err)
			cache.On("Set", "class:whoatc:C10AA05", mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

			remote := &contract.MockClassificationService{}
			remote.On("Classify", mock.Anything, "C10AA05", "whoatc").Return("statins", nil)

			class, err := NewCachedService(remote, cache).Classify(context.Background(), "C10AA05", "whoatc")
			require.NoError(t, err)
			assert.Equal(t, "statins", class)
			cache.AssertExpectations(t)
			remote.AssertExpectations(t)
		})
	}
}

// TestCachedServiceDoesNotCacheErrors tests that failures are passed through uncached.
func TestCachedServiceDoesNotCacheErrors(t *testing.T) {
	cache := &iocache.MockClassCache{}
	cache.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("miss"))

	remote := &contract.MockClassificationService{}
	remote.On("Classify", mock.Anything, "X", "whoatc").Return("", contract.ErrClassNotFound)

	_, err := NewCachedService(remote, cache).Classify(context.Background(), "X", "whoatc")
	assert.ErrorIs(t, err, contract.ErrClassNotFound)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestTable tests the static class table and its fallthrough.
func TestTable(t *testing.T) {
	doc := []byte(`
hc-din:
  "02242963": statins
WHOATC:
  C10AA05: statins
`)
	remote := &contract.MockClassificationService{}
	remote.On("Classify", mock.Anything, "N02AA01", "whoatc").Return("opioids", nil)

	table, err := ParseTable(doc, remote)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	ctx := context.Background()
	class, err := table.Classify(ctx, "02242963", "hc-din")
	require.NoError(t, err)
	assert.Equal(t, "statins", class)

	class, err = table.Classify(ctx, "C10AA05", "whoatc")
	require.NoError(t, err)
	assert.Equal(t, "statins", class)

	class, err = table.Classify(ctx, "N02AA01", "whoatc")
	require.NoError(t, err)
	assert.Equal(t, "opioids", class)

	standalone, err := ParseTable(doc, nil)
	require.NoError(t, err)
	_, err = standalone.Classify(ctx, "N02AA01", "whoatc")
	assert.ErrorIs(t, err, contract.ErrClassNotFound)
	_, err = standalone.Classify(ctx, "1", "ndc")
	assert.ErrorIs(t, err, contract.ErrUnsupportedCodeSystem)

	_, err = ParseTable([]byte("ndc:\n  \"1\": x\n"), nil)
	assert.ErrorIs(t, err, contract.ErrUnsupportedCodeSystem)
}

// TestNewFromConfig tests assembly of the classification chain.
func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(&contract.Config{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := newClassServer(t)
	svc, err := NewFromConfig(&contract.Config{ClassifierURL: srv.URL, ClassifierTimeout: time.Second}, nil)
	require.NoError(t, err)
	class, err := svc.Classify(context.Background(), "02242963", "hc-din")
	require.NoError(t, err)
	assert.Equal(t, "statins", class)

	path := filepath.Join(t.TempDir(), "classes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("whoatc:\n  A10BA02: biguanides\n"), 0o644))
	svc, err = NewFromConfig(&contract.Config{ClassesFile: path}, nil)
	require.NoError(t, err)
	class, err = svc.Classify(context.Background(), "A10BA02", "whoatc")
	require.NoError(t, err)
	assert.Equal(t, "biguanides", class)
}
