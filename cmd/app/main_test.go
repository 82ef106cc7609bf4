package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, loadEnvFile(""))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FINCAST_TEST_ONLY_VAR=from-file\n"), 0o644))
	t.Setenv("FINCAST_TEST_ONLY_VAR", "")
	require.NoError(t, os.Unsetenv("FINCAST_TEST_ONLY_VAR"))
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("FINCAST_TEST_ONLY_VAR"))
}

func TestPrintOutcomes(t *testing.T) {
	mae := 1.25
	var buf bytes.Buffer
	printOutcomes(&buf, map[string]models.TrainingOutcome{
		"VCB": {Entity: "VCB", Status: models.TrainingSuccess, Rows: 40, HoldoutMAE: &mae, Location: "models/VCB_model.json"},
		"ACB": {Entity: "ACB", Status: models.TrainingFailure, Reason: "training failed: ACB: no rows"},
	})
	out := buf.String()
	assert.Contains(t, out, "BANK")
	assert.Contains(t, out, "1.2500")
	assert.Contains(t, out, "models/VCB_model.json")
	assert.Contains(t, out, "training failed: ACB: no rows")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("ACB")), bytes.Index(buf.Bytes(), []byte("VCB")))
}

func TestTrainRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/train", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":200,"message":"OK","data":{"rows":[
			{"entity":"ACB","status":"failure","reason":"no rows","rows":0},
			{"entity":"VCB","status":"success","rows":40,"location":"VCB_model.json"}
		],"total":2}}`))
	}))
	defer srv.Close()

	outcomes, err := trainRemote(t.Context(), srv.URL)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes["VCB"].Succeeded())
	assert.Equal(t, "no rows", outcomes["ACB"].Reason)
}

func TestTrainRemoteConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":409}`, http.StatusConflict)
	}))
	defer srv.Close()

	_, err := trainRemote(t.Context(), srv.URL)
	require.Error(t, err)
}
