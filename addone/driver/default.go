// Package driver 按网卡驱动区分的快照命令族与通道下发规则
package driver

import (
	"context"

	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
)

// DefaultName 默认插件名
const DefaultName = "default"

// Plugin 驱动插件接口
type Plugin interface {
	Name() string
	// SnapshotFamilies 快照时采集的命令族
	SnapshotFamilies() []ethtool.Family
	// SetChannels 下发通道参数（-L）
	SetChannels(ctx context.Context, e *ethtool.Ethtool, device, names, values string, opts ...ethtool.CallOption) (string, error)
}

// DefaultPlugin 通用驱动
type DefaultPlugin struct{}

func (p *DefaultPlugin) Name() string { return DefaultName }

// SnapshotFamilies 所有驱动普遍支持的命令族
func (p *DefaultPlugin) SnapshotFamilies() []ethtool.Family {
	return []ethtool.Family{
		ethtool.FamilyDeviceInfo,
		ethtool.FamilyDriver,
		ethtool.FamilyFeatures,
		ethtool.FamilyRing,
		ethtool.FamilyChannels,
		ethtool.FamilyPause,
		ethtool.FamilyCoalesce,
		ethtool.FamilyStatistics,
	}
}

func (p *DefaultPlugin) SetChannels(ctx context.Context, e *ethtool.Ethtool, device, names, values string, opts ...ethtool.CallOption) (string, error) {
	return e.SetChannelParameters(ctx, device, names, values, opts...)
}
