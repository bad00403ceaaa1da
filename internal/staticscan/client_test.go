package staticscan

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		ProjectKey:     "vulnbench",
		PollInterval:   10 * time.Millisecond,
		ScanTimeout:    2 * time.Second,
		RequestTimeout: time.Second,
	}
}

func TestScanTriggersAndPollsUntilCompleted(t *testing.T) {
	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/scans":
			var req scanRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "vulnbench", req.ProjectKey)
			assert.Equal(t, "abc123", req.Revision)
			json.NewEncoder(w).Encode(scanResponse{ID: "scan-1", Status: scanStatusPending})

		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/scans/scan-1":
			polls++
			if polls < 3 {
				json.NewEncoder(w).Encode(scanResponse{ID: "scan-1", Status: scanStatusRunning})
				return
			}
			json.NewEncoder(w).Encode(scanResponse{ID: "scan-1", Status: scanStatusCompleted, Issues: []scanIssue{
				{Component: "vulnbench:db.go", Rule: "S3649", CWE: "CWE-89", Message: "tainted query", Line: 40},
			}})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL), "/tmp/worktree")
	require.NoError(t, err)

	issues, err := client.Scan(t.Context(), "abc123")
	require.NoError(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, "vulnbench:db.go", issues[0].FilePath)
	assert.Equal(t, "S3649", issues[0].RuleID)
	assert.Equal(t, "CWE-89", issues[0].CWEID)
	assert.Equal(t, 40, issues[0].Line)
	assert.GreaterOrEqual(t, polls, 3)
}

func TestScanFailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(scanResponse{ID: "scan-2", Status: scanStatusPending})
			return
		}
		json.NewEncoder(w).Encode(scanResponse{ID: "scan-2", Status: scanStatusFailed, Message: "worktree missing"})
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL), "/tmp/worktree")
	require.NoError(t, err)

	_, err = client.Scan(t.Context(), "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worktree missing")
}

func TestScanMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(scanResponse{Status: scanStatusPending})
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL), "/tmp/worktree")
	require.NoError(t, err)

	_, err = client.Scan(t.Context(), "abc123")
	assert.Error(t, err)
}
