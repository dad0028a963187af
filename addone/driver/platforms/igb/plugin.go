package igb

import (
	"context"

	"github.com/sshcollectorpro/ethtoolpro/addone/driver"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
)

// Plugin Intel 1GbE（igb）
type Plugin struct{}

func (p *Plugin) Name() string { return "igb" }

func (p *Plugin) SnapshotFamilies() []ethtool.Family {
	return append((&driver.DefaultPlugin{}).SnapshotFamilies(),
		ethtool.FamilyXonXoff,
		ethtool.FamilyEEE,
	)
}

func (p *Plugin) SetChannels(ctx context.Context, e *ethtool.Ethtool, device, names, values string, opts ...ethtool.CallOption) (string, error) {
	return e.SetChannelParameters(ctx, device, names, values, opts...)
}

func init() { driver.Register("igb", &Plugin{}) }
