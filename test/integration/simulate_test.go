package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/sshcollectorpro/ethtoolpro/addone/driver/platforms/igb"
	"github.com/sshcollectorpro/ethtoolpro/api/router"
	"github.com/sshcollectorpro/ethtoolpro/internal/config"
	"github.com/sshcollectorpro/ethtoolpro/internal/database"
	"github.com/sshcollectorpro/ethtoolpro/internal/model"
	"github.com/sshcollectorpro/ethtoolpro/internal/service"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ssh"
	"github.com/sshcollectorpro/ethtoolpro/simulate"
)

type env struct {
	cfg      *config.Config
	sim      *simulate.Server
	pool     *ssh.Pool
	eth      *service.EthtoolService
	snapshot *service.SnapshotService
	target   service.Target
}

// setup 启动回放 SSH 主机，通过真实连接池访问
func setup(t *testing.T) *env {
	t.Helper()
	sc, err := simulate.LoadConfig("../../simulate/fixtures.yaml")
	require.NoError(t, err)
	sc.Listen = "127.0.0.1:0"

	sim, err := simulate.New(sc)
	require.NoError(t, err)
	require.NoError(t, sim.Start())
	t.Cleanup(sim.Stop)

	dir := t.TempDir()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.SQLite.Path = filepath.Join(dir, "ethtoolpro.db")
	cfg.Storage.Backend = "local"
	cfg.Storage.Local.BaseDir = filepath.Join(dir, "data")
	cfg.Storage.Local.MkdirIfMissing = true
	cfg.Ethtool.CommandTimeout = 10 * time.Second
	cfg.Ethtool.DefaultFamilies = nil

	require.NoError(t, database.InitSQLite(cfg.Database.SQLite))
	t.Cleanup(func() { _ = database.Close() })

	pool := ssh.NewPool(&ssh.PoolConfig{
		MaxIdle:   2,
		MaxActive: 2,
		SSHConfig: &ssh.Config{Timeout: 5 * time.Second, MaxSessions: 4},
	}, nil)
	t.Cleanup(func() { _ = pool.Close() })

	eth := service.NewEthtoolService(cfg, pool, nil)
	return &env{
		cfg:      cfg,
		sim:      sim,
		pool:     pool,
		eth:      eth,
		snapshot: service.NewSnapshotService(cfg, eth, service.NewStorageWriter(cfg), nil),
		target: service.Target{
			DeviceIP:  "127.0.0.1",
			Port:      sim.Port(),
			UserName:  "igb-host",
			Password:  "ethtool",
			Interface: "enp2s0",
		},
	}
}

func TestQueryOverSSH(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	resp, err := e.eth.Query(ctx, &service.QueryRequest{Target: e.target, Family: "ring"})
	require.NoError(t, err)
	ring := resp.Record.(ethtool.RingParameters)
	assert.Equal(t, []string{"4096"}, ring.PresetMaxRX)
	assert.Equal(t, []string{"256"}, ring.CurrentHWTX)

	// 返回码为 0 但 stderr 有内容同样视为失败
	_, err = e.eth.Query(ctx, &service.QueryRequest{Target: e.target, Family: "device_info"})
	var execErr *ethtool.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 0, execErr.ReturnCode)
	assert.Contains(t, execErr.Stdout, "100baseT/Half")
	assert.Contains(t, execErr.Error(), "wake-on-lan")

	v, err := e.eth.Version(ctx, e.target)
	require.NoError(t, err)
	assert.Equal(t, "5.16", v)

	n, err := database.CountCommandLogs("127.0.0.1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n, "ring, device_info and --version twice")
}

func TestWrongPasswordNotServedFromPool(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.eth.Query(ctx, &service.QueryRequest{Target: e.target, Family: "pause"})
	require.NoError(t, err)
	require.Equal(t, 1, e.pool.GetStats()["total_connections"])

	bad := e.target
	bad.Password = "definitely-wrong"
	resp, err := e.eth.Query(ctx, &service.QueryRequest{Target: bad, Family: "pause"})
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestSetFailureCarriesExitCode(t *testing.T) {
	e := setup(t)
	_, err := e.eth.Apply(context.Background(), &service.SetRequest{
		Target:    e.target,
		Operation: "ring",
		Name:      "rx",
		Value:     "8192",
	})
	var execErr *ethtool.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 81, execErr.ReturnCode)
	assert.Contains(t, execErr.Stderr, "Invalid argument")
}

func TestChannelsWithDetectedDriver(t *testing.T) {
	e := setup(t)
	tgt := e.target
	tgt.Driver = "auto"

	resp, err := e.eth.Apply(context.Background(), &service.SetRequest{
		Target:    tgt,
		Operation: "channels",
		Name:      "combined",
		Value:     "2",
	})
	require.NoError(t, err)
	assert.Equal(t, "channels", resp.Operation)
	assert.Contains(t, e.sim.Executed(), "ethtool -L enp2s0 combined 2")
	assert.Contains(t, e.sim.Executed(), "ethtool -i enp2s0")
}

func TestSnapshotAgainstSimulator(t *testing.T) {
	e := setup(t)
	tgt := e.target
	tgt.Driver = "auto"

	res, err := e.snapshot.Take(context.Background(), &service.SnapshotRequest{Target: tgt})
	require.NoError(t, err)

	assert.Equal(t, "igb", res.Document.Driver)
	assert.Equal(t, model.SnapshotStatusPartial, res.Snapshot.Status)
	for _, f := range []string{"driver", "ring", "channels", "pause"} {
		assert.Contains(t, res.Document.Records, f)
	}
	for _, f := range []string{"device_info", "features", "coalesce", "statistics", "xon_xoff", "eee"} {
		assert.Contains(t, res.Document.Errors, f)
	}

	bs, err := os.ReadFile(strings.TrimPrefix(res.Object.URI, "file://"))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(bs, &doc))
	assert.Equal(t, res.Document.ID, doc["id"])
	assert.True(t, strings.HasPrefix(res.Object.Checksum, "sha256:"))

	rows, err := e.snapshot.List("127.0.0.1", "enp2s0", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, res.Snapshot.ID, rows[0].ID)
}

func TestHTTPAgainstSimulator(t *testing.T) {
	e := setup(t)
	reg := metrics.NewRegistry()
	srv := httptest.NewServer(router.SetupRouter(router.Deps{
		Config:   e.cfg,
		Ethtool:  e.eth,
		Snapshot: e.snapshot,
		Pool:     e.pool,
		Gatherer: reg,
	}))
	defer srv.Close()

	body := `{"device_ip":"127.0.0.1","port":` + strconv.Itoa(e.sim.Port()) +
		`,"username":"igb-host","password":"ethtool","interface":"enp2s0","family":"pause"}`
	resp, err := http.Post(srv.URL+"/api/v1/ethtool/query", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Family string                 `json:"family"`
		Record map[string]interface{} `json:"record"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "pause", out.Family)
	assert.Equal(t, []interface{}{"on"}, out.Record["rx"])

	health, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
