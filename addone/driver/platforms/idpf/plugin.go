package idpf

import (
	"context"

	"github.com/sshcollectorpro/ethtoolpro/addone/driver"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
)

// Plugin Intel IPU/IDPF 虚拟功能
type Plugin struct{}

func (p *Plugin) Name() string { return "idpf" }

// SnapshotFamilies idpf 不支持 -a
func (p *Plugin) SnapshotFamilies() []ethtool.Family {
	return []ethtool.Family{
		ethtool.FamilyDeviceInfo,
		ethtool.FamilyDriver,
		ethtool.FamilyFeatures,
		ethtool.FamilyRing,
		ethtool.FamilyChannels,
		ethtool.FamilyCoalesce,
		ethtool.FamilyStatistics,
		ethtool.FamilyPrivateFlags,
	}
}

func (p *Plugin) SetChannels(ctx context.Context, e *ethtool.Ethtool, device, names, values string, opts ...ethtool.CallOption) (string, error) {
	return e.SetChannelParametersAligned(ctx, device, names, values, opts...)
}

func init() { driver.Register("idpf", &Plugin{}) }
