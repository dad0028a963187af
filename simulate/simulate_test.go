package simulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
)

func TestLoadFixtures(t *testing.T) {
	cfg, err := LoadConfig("fixtures.yaml")
	require.NoError(t, err)

	host, ok := cfg.Hosts["igb-host"]
	require.True(t, ok)

	fx := host.lookup("ethtool -G enp2s0 rx 8192")
	assert.Equal(t, 81, fx.ExitStatus)
	assert.Contains(t, fx.Stderr, "Invalid argument")

	// 续行缩进在 YAML 块标量中保留相对深度，解析后链路模式不丢
	info, err := ethtool.ParseDeviceInfo(host.lookup("ethtool enp2s0").Stdout)
	require.NoError(t, err)
	assert.Equal(t, []string{"10baseT/Half", "10baseT/Full", "100baseT/Half", "100baseT/Full", "1000baseT/Full"}, info.SupportedLinkModes)
}

func TestUnknownCommand(t *testing.T) {
	h := Host{Commands: []Fixture{{Command: "ethtool -i eth0", Stdout: "driver: ice\n"}}}
	assert.Equal(t, "driver: ice\n", h.lookup("ethtool -i eth0").Stdout)
	assert.Equal(t, 127, h.lookup("ethtool -i eth1").ExitStatus)
}

func TestParseConfigRequiresHosts(t *testing.T) {
	_, err := ParseConfig([]byte("listen: 127.0.0.1:0\n"))
	assert.Error(t, err)

	cfg, err := ParseConfig([]byte("hosts:\n  a:\n    commands: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", cfg.Listen)
}

func TestServerStartStop(t *testing.T) {
	cfg, err := ParseConfig([]byte("password: pw\nhosts:\n  a:\n    commands: []\n"))
	require.NoError(t, err)

	srv, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	assert.NotZero(t, srv.Port())
	assert.NotEmpty(t, srv.Addr())
	srv.Stop()
}
