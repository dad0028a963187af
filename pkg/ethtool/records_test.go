package ethtool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deviceInfoFixture = `Settings for enp2s0:
Supported ports: [ TP ]
Supported link modes:   10baseT/Half 10baseT/Full
                        100baseT/Half 100baseT/Full
                        1000baseT/Full
Supported pause frame use: Symmetric
Supports auto-negotiation: Yes
Supported FEC modes: Not reported
Advertised link modes:  10baseT/Half 10baseT/Full
                        100baseT/Half 100baseT/Full
                        1000baseT/Full
Advertised pause frame use: Symmetric
Advertised auto-negotiation: Yes
Advertised FEC modes: Not reported
Speed: 1000Mb/s
Duplex: Full
Port: Twisted Pair
PHYAD: 1
Transceiver: internal
Auto-negotiation: on
MDI-X: off (auto)
Supports Wake-on: pumbg
Wake-on: g
Current message level: 0x00000007 (7)
                       drv probe link
Link detected: yes
`

const coalesceFixture = `Coalesce parameters for enp2s0:
Adaptive RX: off  TX: off
stats-block-usecs: 0
sample-interval: 0
pkt-rate-low: 0
pkt-rate-high: 0

rx-usecs.nic: 3
rx-frames: 0
rx-usecs-irq: 0
rx-frames-irq: 0

tx-usecs: 0
tx-frames: 0
tx-usecs-irq: 0
tx-frames-irq: 0

rx-usecs-low: 0
rx-frame-low: 0
tx-usecs-low: 0
tx-frame-low: 0

rx-usecs-high: 0
rx-frame-high: 0
tx-usecs-high: 0
tx-frame-high: 0
CQE mode RX: n/a  TX: n/a
`

const ringFixture = `Ring parameters for enp2s0:
Pre-set maximums:
RX:             4096
RX Mini:        0
RX Jumbo:       0
TX:             4096
Current hardware settings:
RX:             256
RX Mini:        0
RX Jumbo:       0
TX:             256
`

const driverFixture = `driver: igb
version: 5.4.0-k
firmware-version: 3.16.0
expansion-rom-version:
bus-info: 0000:02:00.0
supports-statistics: yes
supports-test: yes
supports-eeprom-access: yes
supports-register-dump: yes
supports-priv-flags: yes
`

const featuresFixture = `Features for enp2s0:
rx-checksumming: on
tx-checksumming: on
        tx-checksum-ipv4: off [fixed]
        tx-checksum-ip-generic: on
scatter-gather: on
        tx-scatter-gather: on
tcp-segmentation-offload: on
        tx-tcp6-segmentation: on
highdma: on [fixed]
tx-udp_tnl-segmentation: on
rx-udp_tunnel-port-offload: off [fixed]
macsec-hw-offload: off [fixed]
`

const channelFixture = `Channel parameters for enp2s0:
Pre-set maximums:
RX:             0
TX:             0
Other:          1
Combined:       4
Current hardware settings:
RX:             0
TX:             0
Other:          1
Combined:       4
`

const statisticsFixture = `NIC statistics:
    rx_packets: 52924116
    tx_packets: 6831559
    rx_bytes.nic: 23486721711
    rx_flow_control_xon: 0
    rx_flow_control_xoff: 2
    tx_flow_control_xon: 0
    tx_flow_control_xoff: 0
    rx_queue_0_packets: 578994
`

const privFlagsFixture = `Private flags for enp2s0:
legacy-rx: off
OTP ACCESS: on
`

const eeeFixture = `EEE Settings for enp2s0:
EEE status: enabled - inactive
Tx LPI: 0 (us)
Supported EEE link modes:  100baseT/Full
                           1000baseT/Full
Advertised EEE link modes:  100baseT/Full
                            1000baseT/Full
Link partner advertised EEE link modes:  Not reported
`

func TestParseDeviceInfo(t *testing.T) {
	info, err := ParseDeviceInfo(deviceInfoFixture)
	require.NoError(t, err)

	modes := []string{"10baseT/Half", "10baseT/Full", "100baseT/Half", "100baseT/Full", "1000baseT/Full"}
	assert.Equal(t, []string{"TP"}, info.SupportedPorts)
	assert.Equal(t, modes, info.SupportedLinkModes)
	assert.Equal(t, modes, info.AdvertisedLinkModes)
	assert.Equal(t, []string{"Not reported"}, info.SupportedFECModes)
	assert.Equal(t, []string{"1000Mb/s"}, info.Speed)
	assert.Equal(t, []string{"Twisted Pair"}, info.Port)
	assert.Equal(t, []string{"off (auto)"}, info.MDIX)
	assert.Equal(t, []string{"pumbg"}, info.SupportsWakeOn)
	assert.Equal(t, []string{"0x00000007 (7)", "drv probe link"}, info.CurrentMessageLevel)
	assert.Equal(t, []string{"yes"}, info.LinkDetected)

	// 输出中没有的字段为空序列而不是 nil
	assert.NotNil(t, info.Lanes)
	assert.Empty(t, info.Lanes)
	assert.Empty(t, info.LinkPartnerAdvertisedLinkModes)
}

func TestParsePauseOptions(t *testing.T) {
	p, err := ParsePauseOptions(pauseOutput)
	require.NoError(t, err)
	assert.Equal(t, PauseOptions{
		Autonegotiate: []string{"on"},
		RX:            []string{"on"},
		TX:            []string{"on"},
		RXNegotiated:  []string{},
		TXNegotiated:  []string{},
	}, p)
}

func TestParseCoalesceOptions(t *testing.T) {
	c, err := ParseCoalesceOptions(coalesceFixture)
	require.NoError(t, err)

	assert.Equal(t, []string{"off"}, c.AdaptiveRX)
	assert.Equal(t, []string{"off"}, c.AdaptiveTX)
	assert.Equal(t, []string{"3"}, c.RXUsecs, "rx-usecs.nic 应绑定到 rx_usecs")
	assert.Equal(t, []string{"0"}, c.RXFrameLow)
	assert.Equal(t, []string{"0"}, c.TXFrameHigh)
	assert.Equal(t, []string{"n/a"}, c.CQEModeRX)
	assert.Equal(t, []string{"n/a"}, c.CQEModeTX)
}

func TestParseCoalescePluralFrameKeys(t *testing.T) {
	c, err := ParseCoalesceOptions("rx-usecs: 50\nrx-frames-low: 7\ntx-frames-high: 9\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"50"}, c.RXUsecs)
	assert.Equal(t, []string{"7"}, c.RXFrameLow)
	assert.Equal(t, []string{"9"}, c.TXFrameHigh)
}

func TestParseRingParameters(t *testing.T) {
	r, err := ParseRingParameters(ringFixture)
	require.NoError(t, err)

	assert.Equal(t, []string{"4096"}, r.PresetMaxRX)
	assert.Equal(t, []string{"0"}, r.PresetMaxRXMini)
	assert.Equal(t, []string{"4096"}, r.PresetMaxTX)
	assert.Equal(t, []string{"256"}, r.CurrentHWRX)
	assert.Equal(t, []string{"0"}, r.CurrentHWRXJumbo)
	assert.Equal(t, []string{"256"}, r.CurrentHWTX)
	assert.Empty(t, r.CurrentHWTCPDataSplit)
}

func TestParseDriverInfo(t *testing.T) {
	d, err := ParseDriverInfo(driverFixture)
	require.NoError(t, err)

	assert.Equal(t, []string{"igb"}, d.Driver)
	assert.Equal(t, []string{"5.4.0-k"}, d.Version)
	assert.Equal(t, []string{"3.16.0"}, d.FirmwareVersion)
	assert.Equal(t, []string{""}, d.ExpansionROMVersion)
	assert.Equal(t, []string{"0000:02:00.0"}, d.BusInfo)
	assert.Equal(t, []string{"yes"}, d.SupportsPrivFlags)
}

func TestParseFeatures(t *testing.T) {
	f, err := ParseFeatures(featuresFixture)
	require.NoError(t, err)

	assert.Equal(t, []string{"on"}, f.RXChecksumming)
	assert.Equal(t, []string{"off [fixed]"}, f.TXChecksumIPv4)
	assert.Equal(t, []string{"on"}, f.TXChecksumIPGeneric)
	assert.Equal(t, []string{"on"}, f.TXTCP6Segmentation)
	assert.Equal(t, []string{"on [fixed]"}, f.HighDMA)
	assert.Equal(t, []string{"on"}, f.TXUDPTnlSegmentation)
	assert.Equal(t, []string{"off [fixed]"}, f.RXUDPTunnelPortOffload)
	assert.Empty(t, f.LargeReceiveOffload)

	assert.Equal(t, map[string][]string{"macsec_hw_offload": {"off [fixed]"}}, f.Extra)
}

func TestParseChannelParameters(t *testing.T) {
	c, err := ParseChannelParameters(channelFixture)
	require.NoError(t, err)
	assert.Equal(t, ChannelParameters{
		PresetMaxRX:       []string{"0"},
		PresetMaxTX:       []string{"0"},
		PresetMaxOther:    []string{"1"},
		PresetMaxCombined: []string{"4"},
		CurrentHWRX:       []string{"0"},
		CurrentHWTX:       []string{"0"},
		CurrentHWOther:    []string{"1"},
		CurrentHWCombined: []string{"4"},
	}, c)
}

func TestParseStatistics(t *testing.T) {
	s, err := ParseStatistics(statisticsFixture)
	require.NoError(t, err)

	assert.Equal(t, 8, s.Len())
	assert.Equal(t, "rx_packets", s.Names[0])
	assert.Equal(t, []string{"23486721711"}, s.Get("rx_bytes_nic"))
	assert.Equal(t, []string{}, s.Get("tx_bytes_nic"))
}

func TestParseXonXoffStatistics(t *testing.T) {
	x, err := ParseXonXoffStatistics(statisticsFixture)
	require.NoError(t, err)
	assert.Equal(t, XonXoffStatistics{
		RXFlowControlXON:  []string{"0"},
		RXFlowControlXOFF: []string{"2"},
		TXFlowControlXON:  []string{"0"},
		TXFlowControlXOFF: []string{"0"},
	}, x)
}

func TestParsePrivateFlags(t *testing.T) {
	p, err := ParsePrivateFlags(privFlagsFixture)
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy_rx", "otp_access"}, p.Names)
	assert.Equal(t, []string{"off"}, p.Get("legacy_rx"))
	assert.Equal(t, []string{"on"}, p.Get("otp_access"))
}

func TestParseFECSettings(t *testing.T) {
	cases := map[string]string{
		"configured": "FEC parameters for enp2s0:\nConfigured FEC encodings:  Auto RS BaseR\nActive FEC encoding: RS\n",
		"supported":  "\nFEC parameters for enp2s1:\nSupported/Configured FEC encodings: Auto RS BaseR\nActive FEC encoding: RS",
		"plural":     "FEC parameters for enp2s0:\nConfigured FEC encodings: Auto RS BaseR\nActive FEC encodings: RS\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := ParseFECSettings(raw)
			require.NoError(t, err)
			assert.Equal(t, []string{"Auto RS BaseR"}, f.ConfiguredFECEncodings)
			assert.Equal(t, []string{"RS"}, f.ActiveFECEncoding)
		})
	}
}

func TestParseEEESettings(t *testing.T) {
	e, err := ParseEEESettings(eeeFixture)
	require.NoError(t, err)
	assert.Equal(t, EEESettings{
		EEEStatus:                         []string{"enabled - inactive"},
		TxLPI:                             []string{"0 (us)"},
		SupportedEEELinkModes:             []string{"100baseT/Full", "1000baseT/Full"},
		AdvertisedEEELinkModes:            []string{"100baseT/Full", "1000baseT/Full"},
		LinkPartnerAdvertisedEEELinkModes: []string{"Not reported"},
	}, e)
}

func TestEmptyOutputIsAnError(t *testing.T) {
	for _, f := range Families() {
		_, err := ParseRecord(f, "")
		assert.ErrorIs(t, err, ErrEmptyOutput, "family %s", f)

		_, err = ParseRecord(f, "Pause parameters for enp2s0:\n\n")
		assert.ErrorIs(t, err, ErrEmptyOutput, "family %s", f)
	}
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily(" Ring ")
	require.NoError(t, err)
	assert.Equal(t, FamilyRing, f)
	assert.Equal(t, "-g", f.Option())
	assert.Equal(t, "", FamilyDeviceInfo.Option())

	_, err = ParseFamily("bogus")
	assert.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestGettersIssueFamilyCommands(t *testing.T) {
	r := newFakeRunner().
		on("ethtool enp2s0", deviceInfoFixture).
		on("ethtool -a enp2s0", pauseOutput).
		on("ethtool -c enp2s0", coalesceFixture).
		on("ethtool -g enp2s0", ringFixture).
		on("ethtool -i enp2s0", driverFixture).
		on("ethtool -k enp2s0", featuresFixture).
		on("ethtool -l enp2s0", channelFixture).
		on("ethtool -S enp2s0", statisticsFixture).
		on("ethtool --show-priv-flags enp2s0", privFlagsFixture).
		on("ethtool --show-fec enp2s0", "Configured FEC encodings: Off\nActive FEC encoding: None\n").
		on("ethtool --show-eee enp2s0", eeeFixture)
	e := New(r)
	ctx := context.Background()

	for _, f := range Families() {
		rec, err := e.Query(ctx, f, "enp2s0")
		require.NoError(t, err, "family %s", f)
		assert.NotNil(t, rec)
	}

	ring, err := e.GetRingParameters(ctx, "enp2s0")
	require.NoError(t, err)
	assert.Equal(t, []string{"256"}, ring.CurrentHWRX)

	xon, err := e.GetStatisticsXonXoff(ctx, "enp2s0")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, xon.RXFlowControlXOFF)

	driver, err := e.GetDriverInformation(ctx, "enp2s0")
	require.NoError(t, err)
	assert.Equal(t, []string{"igb"}, driver.Driver)
}

func TestGetterWithNamespace(t *testing.T) {
	r := newFakeRunner().on("ip netns exec NS1 ethtool -a enp2s0", pauseOutput)
	e := New(r)

	p, err := e.GetPauseOptions(context.Background(), "enp2s0", InNamespace("NS1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"on"}, p.Autonegotiate)
	assert.Equal(t, "ip netns exec NS1 ethtool -a enp2s0", r.last())
}

func TestGetterEmptyOutput(t *testing.T) {
	e := New(newFakeRunner())

	_, err := e.GetStandardDeviceInfo(context.Background(), "enp2s0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyOutput)
	assert.Contains(t, err.Error(), "error while fetching ethtool output")
}

func TestQueryUnknownFamily(t *testing.T) {
	r := newFakeRunner()
	_, err := New(r).Query(context.Background(), Family("nope"), "eth0")
	assert.ErrorIs(t, err, ErrUnsupportedOption)
	assert.Empty(t, r.calls)
}
