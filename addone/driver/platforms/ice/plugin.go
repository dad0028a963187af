package ice

import (
	"context"

	"github.com/sshcollectorpro/ethtoolpro/addone/driver"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
)

// Plugin Intel E800 系列（ice）
type Plugin struct{}

func (p *Plugin) Name() string { return "ice" }

func (p *Plugin) SnapshotFamilies() []ethtool.Family {
	return append((&driver.DefaultPlugin{}).SnapshotFamilies(),
		ethtool.FamilyPrivateFlags,
		ethtool.FamilyFEC,
	)
}

// SetChannels ice 的 rx/tx 专用队列与 combined 队列不能同时存在
func (p *Plugin) SetChannels(ctx context.Context, e *ethtool.Ethtool, device, names, values string, opts ...ethtool.CallOption) (string, error) {
	return e.SetChannelParametersAligned(ctx, device, names, values, opts...)
}

func init() { driver.Register("ice", &Plugin{}) }
