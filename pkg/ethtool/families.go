package ethtool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool/parser"
)

// Family 结构化输出的命令族
type Family string

const (
	FamilyDeviceInfo   Family = "device_info"
	FamilyPause        Family = "pause"
	FamilyCoalesce     Family = "coalesce"
	FamilyRing         Family = "ring"
	FamilyDriver       Family = "driver"
	FamilyFeatures     Family = "features"
	FamilyChannels     Family = "channels"
	FamilyStatistics   Family = "statistics"
	FamilyXonXoff      Family = "xon_xoff"
	FamilyPrivateFlags Family = "private_flags"
	FamilyFEC          Family = "fec"
	FamilyEEE          Family = "eee"
)

// dualBlockSections "预设最大值 / 当前硬件设置" 两段式输出（-g、-l）
var dualBlockSections = []parser.Section{
	{Header: "Pre-set maximums:", Prefix: "preset_max_"},
	{Header: "Current hardware settings:", Prefix: "current_hw_"},
}

type familySpec struct {
	option string
	opts   parser.Options
}

var familySpecs = map[Family]familySpec{
	FamilyDeviceInfo:   {option: ""},
	FamilyPause:        {option: "-a"},
	FamilyCoalesce:     {option: "-c"},
	FamilyRing:         {option: "-g", opts: parser.Options{Sections: dualBlockSections}},
	FamilyDriver:       {option: "-i"},
	FamilyFeatures:     {option: "-k"},
	FamilyChannels:     {option: "-l", opts: parser.Options{Sections: dualBlockSections}},
	FamilyStatistics:   {option: "-S"},
	FamilyXonXoff:      {option: "-S"},
	FamilyPrivateFlags: {option: "--show-priv-flags"},
	FamilyFEC:          {option: "--show-fec"},
	FamilyEEE:          {option: "--show-eee"},
}

// Families 全部命令族（固定顺序）
func Families() []Family {
	return []Family{
		FamilyDeviceInfo, FamilyPause, FamilyCoalesce, FamilyRing, FamilyDriver, FamilyFeatures,
		FamilyChannels, FamilyStatistics, FamilyXonXoff, FamilyPrivateFlags, FamilyFEC, FamilyEEE,
	}
}

// ParseFamily 校验命令族名称
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := familySpecs[f]; !ok {
		return "", unsupported(s)
	}
	return f, nil
}

// Option 返回命令族对应的 ethtool 选项
func (f Family) Option() string {
	return familySpecs[f].option
}

// ParseFields 按命令族规则把输出解析为 FieldMap；无字段时返回 ErrEmptyOutput
func ParseFields(f Family, raw string) (*parser.FieldMap, error) {
	spec, ok := familySpecs[f]
	if !ok {
		return nil, unsupported(string(f))
	}
	fm := parser.Parse(raw, spec.opts)
	if fm.Len() == 0 {
		return nil, ErrEmptyOutput
	}
	return fm, nil
}

func parseRecord[T any](f Family, raw string, table []binding[T]) (T, error) {
	fm, err := ParseFields(f, raw)
	if err != nil {
		var zero T
		return zero, err
	}
	return assemble(fm, table), nil
}

// ParseDeviceInfo 解析 `ethtool DEV` 输出
func ParseDeviceInfo(raw string) (DeviceInfo, error) {
	return parseRecord(FamilyDeviceInfo, raw, deviceInfoBindings)
}

// ParsePauseOptions 解析 `ethtool -a` 输出
func ParsePauseOptions(raw string) (PauseOptions, error) {
	return parseRecord(FamilyPause, raw, pauseBindings)
}

// ParseCoalesceOptions 解析 `ethtool -c` 输出
func ParseCoalesceOptions(raw string) (CoalesceOptions, error) {
	return parseRecord(FamilyCoalesce, raw, coalesceBindings)
}

// ParseRingParameters 解析 `ethtool -g` 输出
func ParseRingParameters(raw string) (RingParameters, error) {
	return parseRecord(FamilyRing, raw, ringBindings)
}

// ParseDriverInfo 解析 `ethtool -i` 输出
func ParseDriverInfo(raw string) (DriverInfo, error) {
	return parseRecord(FamilyDriver, raw, driverBindings)
}

// ParseChannelParameters 解析 `ethtool -l` 输出
func ParseChannelParameters(raw string) (ChannelParameters, error) {
	return parseRecord(FamilyChannels, raw, channelBindings)
}

// ParseFECSettings 解析 `ethtool --show-fec` 输出
func ParseFECSettings(raw string) (FECSettings, error) {
	return parseRecord(FamilyFEC, raw, fecBindings)
}

// ParseEEESettings 解析 `ethtool --show-eee` 输出
func ParseEEESettings(raw string) (EEESettings, error) {
	return parseRecord(FamilyEEE, raw, eeeBindings)
}

// ParseXonXoffStatistics 从 `ethtool -S` 输出中取流控计数
func ParseXonXoffStatistics(raw string) (XonXoffStatistics, error) {
	return parseRecord(FamilyXonXoff, raw, xonXoffBindings)
}

// ParseFeatures 解析 `ethtool -k` 输出
func ParseFeatures(raw string) (Features, error) {
	fm, err := ParseFields(FamilyFeatures, raw)
	if err != nil {
		return Features{}, err
	}
	return assembleFeatures(fm), nil
}

// ParseStatistics 解析 `ethtool -S` 输出
func ParseStatistics(raw string) (Statistics, error) {
	fm, err := ParseFields(FamilyStatistics, raw)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{Counters: countersFrom(fm, nil)}, nil
}

// ParsePrivateFlags 解析 `ethtool --show-priv-flags` 输出
func ParsePrivateFlags(raw string) (PrivateFlags, error) {
	fm, err := ParseFields(FamilyPrivateFlags, raw)
	if err != nil {
		return PrivateFlags{}, err
	}
	return PrivateFlags{Counters: countersFrom(fm, nil)}, nil
}

// ParseRecord 按命令族解析为对应记录
func ParseRecord(f Family, raw string) (any, error) {
	switch f {
	case FamilyDeviceInfo:
		return ParseDeviceInfo(raw)
	case FamilyPause:
		return ParsePauseOptions(raw)
	case FamilyCoalesce:
		return ParseCoalesceOptions(raw)
	case FamilyRing:
		return ParseRingParameters(raw)
	case FamilyDriver:
		return ParseDriverInfo(raw)
	case FamilyFeatures:
		return ParseFeatures(raw)
	case FamilyChannels:
		return ParseChannelParameters(raw)
	case FamilyStatistics:
		return ParseStatistics(raw)
	case FamilyXonXoff:
		return ParseXonXoffStatistics(raw)
	case FamilyPrivateFlags:
		return ParsePrivateFlags(raw)
	case FamilyFEC:
		return ParseFECSettings(raw)
	case FamilyEEE:
		return ParseEEESettings(raw)
	default:
		return nil, unsupported(string(f))
	}
}

// fetch 执行命令族对应的查询并解析
func fetch[T any](ctx context.Context, e *Ethtool, f Family, device string, opts []CallOption, parse func(string) (T, error)) (T, error) {
	var zero T
	out, err := e.Execute(ctx, f.Option(), device, "", opts...)
	if err != nil {
		return zero, err
	}
	rec, err := parse(out)
	if err != nil {
		if errors.Is(err, ErrEmptyOutput) {
			e.metrics.RecordParseFailure(string(f))
		}
		return zero, fmt.Errorf("%s %s: %w", f, device, err)
	}
	return rec, nil
}

// Query 按命令族查询并返回对应记录
func (e *Ethtool) Query(ctx context.Context, f Family, device string, opts ...CallOption) (any, error) {
	if _, ok := familySpecs[f]; !ok {
		return nil, unsupported(string(f))
	}
	return fetch(ctx, e, f, device, opts, func(raw string) (any, error) { return ParseRecord(f, raw) })
}
