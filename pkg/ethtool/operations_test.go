package ethtool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationCommands(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		call func(e *Ethtool, opts ...CallOption) (string, error)
		want string
	}{
		{"set pause", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetPauseOptions(ctx, "enp2s0", "autoneg", "off", o...)
		}, "ethtool -A enp2s0 autoneg off"},
		{"set coalesce", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetCoalesceOptions(ctx, "enp2s0", "rx-usecs", "62", o...)
		}, "ethtool -C enp2s0 rx-usecs 62"},
		{"set ring", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetRingParameters(ctx, "enp2s0", "rx", "512", o...)
		}, "ethtool -G enp2s0 rx 512"},
		{"set features", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetProtocolOffloadAndFeatureState(ctx, "enp2s0", "tso", "on", o...)
		}, "ethtool -K enp2s0 tso on"},
		{"flow get default", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.GetReceiveNetworkFlowClassification(ctx, "enp2s0", "", "", "", o...)
		}, "ethtool -u enp2s0"},
		{"flow get n with hash", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.GetReceiveNetworkFlowClassification(ctx, "enp2s0", FlowShowN, "rx-flow-hash", "tcp4", o...)
		}, "ethtool -n enp2s0 rx-flow-hash tcp4"},
		{"flow set default", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetReceiveNetworkFlowClassification(ctx, "enp2s0", "", "flow-type ip4 proto 1 action -1", o...)
		}, "ethtool -U enp2s0 flow-type ip4 proto 1 action -1"},
		{"flow set N", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetReceiveNetworkFlowClassification(ctx, "enp2s0", FlowSetN, "flow-type proto 1 ip4 sdfn", o...)
		}, "ethtool -N enp2s0 flow-type proto 1 ip4 sdfn"},
		{"identify", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.ShowVisiblePortIdentification(ctx, "enp2s0", 5, o...)
		}, "ethtool -p enp2s0 5"},
		{"change eeprom", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.ChangeEEPROMSettings(ctx, "enp2s0", "magic 0x15338086 offset 0x10 value 0x1", o...)
		}, "ethtool -E enp2s0 magic 0x15338086 offset 0x10 value 0x1"},
		{"eeprom dump", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.DoEEPROMDump(ctx, "enp2s0", "", o...)
		}, "ethtool -e enp2s0"},
		{"restart negotiation", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.RestartNegotiation(ctx, "enp2s0", o...)
		}, "ethtool -r enp2s0"},
		{"self test", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.ExecuteSelfTest(ctx, "enp2s0", "offline", o...)
		}, "ethtool -t enp2s0 offline"},
		{"generic options", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.ChangeGenericOptions(ctx, "enp2s0", "speed", "1000", o...)
		}, "ethtool -s enp2s0 speed 1000"},
		{"set priv flags", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetPrivateFlags(ctx, "enp2s0", "legacy-rx", "on", o...)
		}, "ethtool --set-priv-flags enp2s0 legacy-rx on"},
		{"rss get", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.GetRSSIndirectionTable(ctx, "enp2s0", o...)
		}, "ethtool -x enp2s0"},
		{"rss default", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetRSSIndirectionTable(ctx, "enp2s0", "default", "", o...)
		}, "ethtool -X enp2s0 default"},
		{"rss equal", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetRSSIndirectionTable(ctx, "enp2s0", "equal", "20", o...)
		}, "ethtool -X enp2s0 equal 20"},
		{"flash", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.FlashFirmwareImage(ctx, "enp2s0", "gtp.pkgo", "100", o...)
		}, "ethtool -f enp2s0 gtp.pkgo 100"},
		{"unload ddp", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.UnloadDDPProfile(ctx, "enp2s0", "100", o...)
		}, "ethtool -f enp2s0 - 100"},
		{"set fec", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetFECSettings(ctx, "enp2s0", "encoding", "off", o...)
		}, "ethtool --set-fec enp2s0 encoding off"},
		{"register dump", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.DoRegisterDump(ctx, "enp2s0", o...)
		}, "ethtool -d enp2s0"},
		{"timestamping", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.GetTimeStampingCapabilities(ctx, "enp2s0", o...)
		}, "ethtool -T enp2s0"},
		{"module eeprom", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.DumpModuleEEPROM(ctx, "enp2s0", "offset 0x14 length 32", o...)
		}, "ethtool -m enp2s0 offset 0x14 length 32"},
		{"set eee", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetEEESettings(ctx, "enp2s0", "eee", "off", o...)
		}, "ethtool --set-eee enp2s0 eee off"},
		{"phy tunable", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetPHYTunable(ctx, "enp2s0", "downshift on count 2", o...)
		}, "ethtool --set-phy-tunable enp2s0 downshift on count 2"},
		{"reset", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.ResetComponents(ctx, "enp2s0", "phy", o...)
		}, "ethtool --reset enp2s0 phy"},
		{"get dump", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.GetDump(ctx, "enp2s0", "data file.bin", o...)
		}, "ethtool -w enp2s0 data file.bin"},
		{"set dump", func(e *Ethtool, o ...CallOption) (string, error) {
			return e.SetDump(ctx, "enp2s0", "3", o...)
		}, "ethtool -W enp2s0 3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newFakeRunner()
			_, err := tc.call(New(r))
			require.NoError(t, err)
			assert.Equal(t, tc.want, r.last())

			r = newFakeRunner()
			_, err = tc.call(New(r), InNamespace("NS1"))
			require.NoError(t, err)
			assert.Equal(t, "ip netns exec NS1 "+tc.want, r.last())
		})
	}
}

func TestRawOperationsReturnOutputVerbatim(t *testing.T) {
	const dump = "0x00000: CTRL (Device control register)               0x58100241\nDuplex:                                        full\n"
	r := newFakeRunner().on("ethtool -d enp2s0", dump)

	out, err := New(r).DoRegisterDump(context.Background(), "enp2s0")
	require.NoError(t, err)
	assert.Equal(t, dump, out)
}

func TestFlowClassificationRejectsUnknownOption(t *testing.T) {
	r := newFakeRunner()
	e := New(r)

	_, err := e.GetReceiveNetworkFlowClassification(context.Background(), "enp2s0", FlowOption("unknown"), "", "")
	require.ErrorIs(t, err, ErrUnsupportedOption)
	assert.EqualError(t, err, "incorrect option for ethtool command: unknown")

	_, err = e.GetReceiveNetworkFlowClassification(context.Background(), "enp2s0", FlowSetU, "", "")
	assert.ErrorIs(t, err, ErrUnsupportedOption)

	_, err = e.SetReceiveNetworkFlowClassification(context.Background(), "enp2s0", FlowShowN, "some params")
	assert.ErrorIs(t, err, ErrUnsupportedOption)
	assert.Empty(t, r.calls)
}

func TestFlashFirmwareImageRequiresFile(t *testing.T) {
	r := newFakeRunner()
	_, err := New(r).FlashFirmwareImage(context.Background(), "enp2s0", "", "100")
	assert.ErrorIs(t, err, ErrMalformedCombination)
	assert.Empty(t, r.calls)
}

func TestGetPermHWAddress(t *testing.T) {
	r := newFakeRunner().on("ip netns exec NS1 ethtool -P enp2s0", "Permanent address: 00:90:fb:bb:aa:cc")
	addr, err := New(r).GetPermHWAddress(context.Background(), "enp2s0", InNamespace("NS1"))
	require.NoError(t, err)
	assert.Equal(t, "00:90:fb:bb:aa:cc", addr)

	_, err = New(newFakeRunner()).GetPermHWAddress(context.Background(), "enp2s0")
	assert.ErrorIs(t, err, ErrEmptyOutput)
}
