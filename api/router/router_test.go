package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/ethtoolpro/internal/config"
	"github.com/sshcollectorpro/ethtoolpro/internal/service"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
)

const pauseOutput = `Pause parameters for eth0:
Autonegotiate:	on
RX:		on
TX:		off
`

func fakeRunner(_ context.Context, command string) (*ethtool.Result, error) {
	switch command {
	case "ethtool -a eth0":
		return &ethtool.Result{Command: command, Stdout: pauseOutput}, nil
	case "ethtool --version":
		return &ethtool.Result{Command: command, Stdout: "ethtool version 6.7\n"}, nil
	case "ethtool -s eth0 speed 100":
		return &ethtool.Result{Command: command, ReturnCode: 75, Stderr: "Cannot set new settings: Operation not supported\n"}, nil
	}
	return &ethtool.Result{Command: command, ReturnCode: 127, Stderr: "not found"}, nil
}

func setupTest(t *testing.T) (http.Handler, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logFile, []byte("level=info msg=one\nlevel=error msg=two\nlevel=info msg=three\n"), 0o644))

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Ethtool: config.EthtoolConfig{
			Binary:              "ethtool",
			SucceedCodes:        []int{0},
			CommandTimeout:      5 * time.Second,
			SnapshotConcurrency: 1,
			DefaultDriver:       "default",
		},
		Storage: config.StorageConfig{
			Backend: "local",
			Prefix:  "snapshots",
			Local:   config.LocalStorageConfig{BaseDir: t.TempDir(), MkdirIfMissing: true},
		},
	}
	cfg.Log.FilePath = logFile

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	eth := service.NewEthtoolService(cfg, nil, m).WithRunnerFactory(func(service.Target) (ethtool.Runner, error) {
		return ethtool.RunnerFunc(fakeRunner), nil
	})
	snap := service.NewSnapshotService(cfg, eth, service.NewStorageWriter(cfg), m)
	return SetupRouter(Deps{Config: cfg, Ethtool: eth, Snapshot: snap, Gatherer: reg}), logFile
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var target = map[string]interface{}{
	"device_ip": "10.0.0.1",
	"username":  "root",
	"password":  "pw",
	"interface": "eth0",
}

func with(extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range target {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func TestQueryEndpoint(t *testing.T) {
	h, _ := setupTest(t)
	w := doJSON(t, h, http.MethodPost, "/api/v1/ethtool/query", with(map[string]interface{}{"family": "pause"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "pause", body["family"])
	record := body["record"].(map[string]interface{})
	assert.Equal(t, []interface{}{"on"}, record["autonegotiate"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestQueryEndpointErrors(t *testing.T) {
	h, _ := setupTest(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/ethtool/query", target)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMS", decode(t, w)["code"])

	w = doJSON(t, h, http.MethodPost, "/api/v1/ethtool/query", with(map[string]interface{}{"family": "bogus"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_OPTION", decode(t, w)["code"])

	w = doJSON(t, h, http.MethodPost, "/api/v1/ethtool/query", map[string]interface{}{"family": "pause", "interface": "eth0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TARGET", decode(t, w)["code"])
}

func TestRawEndpointRejectsInjection(t *testing.T) {
	h, _ := setupTest(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/ethtool/raw", map[string]interface{}{
		"local":     true,
		"operation": "execute",
		"option":    "--version",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TARGET", decode(t, w)["code"])

	w = doJSON(t, h, http.MethodPost, "/api/v1/ethtool/raw", with(map[string]interface{}{
		"operation": "execute",
		"option":    "--version >/dev/null 2>&1;",
		"params":    "echo INJECTED-$(id -un)",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])
	assert.NotContains(t, w.Body.String(), "INJECTED-root")
}

func TestSetEndpointExecutionFailure(t *testing.T) {
	h, _ := setupTest(t)
	w := doJSON(t, h, http.MethodPost, "/api/v1/ethtool/set", with(map[string]interface{}{
		"operation": "generic",
		"name":      "speed",
		"value":     "100",
	}))
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "EXECUTION_FAILED", body["code"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, float64(75), details["return_code"])
	assert.Equal(t, "ethtool -s eth0 speed 100", details["command"])
}

func TestVersionEndpoint(t *testing.T) {
	h, _ := setupTest(t)
	w := doJSON(t, h, http.MethodPost, "/api/v1/ethtool/version", target)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "6.7", data["version"])
}

func TestOperationsEndpoint(t *testing.T) {
	h, _ := setupTest(t)
	w := doJSON(t, h, http.MethodGet, "/api/v1/ethtool/operations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["families"], len(ethtool.Families()))
	assert.Len(t, data["set"], len(service.SetOperations()))
	assert.Len(t, data["raw"], len(service.RawOperations()))
}

func TestSnapshotEndpoint(t *testing.T) {
	h, _ := setupTest(t)
	w := doJSON(t, h, http.MethodPost, "/api/v1/snapshots", with(map[string]interface{}{
		"families": []string{"pause", "ring"},
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	snap := body["snapshot"].(map[string]interface{})
	assert.Equal(t, "partial", snap["status"])
	obj := body["object"].(map[string]interface{})
	assert.Equal(t, "local", obj["backend"])
	assert.FileExists(t, strings.TrimPrefix(obj["uri"].(string), "file://"))
}

func TestLogsEndpoint(t *testing.T) {
	h, logFile := setupTest(t)
	w := doJSON(t, h, http.MethodGet, "/api/v1/logs?level=error", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, logFile, data["path"])
	assert.Equal(t, []interface{}{"level=error msg=two"}, data["lines"])

	w = doJSON(t, h, http.MethodGet, "/api/v1/logs?limit=2", nil)
	data = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
}

func TestMetricsAndNotFound(t *testing.T) {
	h, _ := setupTest(t)
	doJSON(t, h, http.MethodPost, "/api/v1/ethtool/query", with(map[string]interface{}{"family": "pause"}))

	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ethtoolpro_commands_total")

	w = doJSON(t, h, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
}

func TestHealthWithoutPool(t *testing.T) {
	h, _ := setupTest(t)
	w := doJSON(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SUCCESS", decode(t, w)["code"])
}
