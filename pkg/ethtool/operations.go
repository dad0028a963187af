package ethtool

import (
	"context"
	"fmt"
	"strconv"
)

// FlowOption 接收流分类选项（-u/-n 查询，-U/-N 设置）
type FlowOption string

const (
	FlowShowU FlowOption = "-u"
	FlowShowN FlowOption = "-n"
	FlowSetU  FlowOption = "-U"
	FlowSetN  FlowOption = "-N"
)

// GetStandardDeviceInfo `ethtool DEV`
func (e *Ethtool) GetStandardDeviceInfo(ctx context.Context, device string, opts ...CallOption) (DeviceInfo, error) {
	return fetch(ctx, e, FamilyDeviceInfo, device, opts, ParseDeviceInfo)
}

// GetPauseOptions `ethtool -a`
func (e *Ethtool) GetPauseOptions(ctx context.Context, device string, opts ...CallOption) (PauseOptions, error) {
	return fetch(ctx, e, FamilyPause, device, opts, ParsePauseOptions)
}

// SetPauseOptions `ethtool -A DEV NAME VALUE`
func (e *Ethtool) SetPauseOptions(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-A", device, joinParams(name, value), opts...)
}

// GetCoalesceOptions `ethtool -c`
func (e *Ethtool) GetCoalesceOptions(ctx context.Context, device string, opts ...CallOption) (CoalesceOptions, error) {
	return fetch(ctx, e, FamilyCoalesce, device, opts, ParseCoalesceOptions)
}

// SetCoalesceOptions `ethtool -C DEV NAME VALUE`
func (e *Ethtool) SetCoalesceOptions(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-C", device, joinParams(name, value), opts...)
}

// GetRingParameters `ethtool -g`
func (e *Ethtool) GetRingParameters(ctx context.Context, device string, opts ...CallOption) (RingParameters, error) {
	return fetch(ctx, e, FamilyRing, device, opts, ParseRingParameters)
}

// SetRingParameters `ethtool -G DEV NAME VALUE`
func (e *Ethtool) SetRingParameters(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-G", device, joinParams(name, value), opts...)
}

// GetDriverInformation `ethtool -i`
func (e *Ethtool) GetDriverInformation(ctx context.Context, device string, opts ...CallOption) (DriverInfo, error) {
	return fetch(ctx, e, FamilyDriver, device, opts, ParseDriverInfo)
}

// GetProtocolOffloadAndFeatureState `ethtool -k`
func (e *Ethtool) GetProtocolOffloadAndFeatureState(ctx context.Context, device string, opts ...CallOption) (Features, error) {
	return fetch(ctx, e, FamilyFeatures, device, opts, ParseFeatures)
}

// SetProtocolOffloadAndFeatureState `ethtool -K DEV NAME VALUE`
func (e *Ethtool) SetProtocolOffloadAndFeatureState(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-K", device, joinParams(name, value), opts...)
}

// GetChannelParameters `ethtool -l`
func (e *Ethtool) GetChannelParameters(ctx context.Context, device string, opts ...CallOption) (ChannelParameters, error) {
	return fetch(ctx, e, FamilyChannels, device, opts, ParseChannelParameters)
}

// GetReceiveNetworkFlowClassification `ethtool -u|-n DEV [NAME VALUE]`，原样返回输出
func (e *Ethtool) GetReceiveNetworkFlowClassification(ctx context.Context, device string, option FlowOption, name, value string, opts ...CallOption) (string, error) {
	if option == "" {
		option = FlowShowU
	}
	if option != FlowShowU && option != FlowShowN {
		return "", unsupported(string(option))
	}
	return e.Execute(ctx, string(option), device, joinParams(name, value), opts...)
}

// SetReceiveNetworkFlowClassification `ethtool -U|-N DEV PARAMS`
func (e *Ethtool) SetReceiveNetworkFlowClassification(ctx context.Context, device string, option FlowOption, params string, opts ...CallOption) (string, error) {
	if option == "" {
		option = FlowSetU
	}
	if option != FlowSetU && option != FlowSetN {
		return "", unsupported(string(option))
	}
	return e.Execute(ctx, string(option), device, params, opts...)
}

// ShowVisiblePortIdentification `ethtool -p DEV SECONDS`
func (e *Ethtool) ShowVisiblePortIdentification(ctx context.Context, device string, duration int, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-p", device, strconv.Itoa(duration), opts...)
}

// ChangeEEPROMSettings `ethtool -E DEV PARAMS`
func (e *Ethtool) ChangeEEPROMSettings(ctx context.Context, device, params string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-E", device, params, opts...)
}

// DoEEPROMDump `ethtool -e DEV [PARAMS]`，原样返回十六进制转储
func (e *Ethtool) DoEEPROMDump(ctx context.Context, device, params string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-e", device, params, opts...)
}

// RestartNegotiation `ethtool -r`
func (e *Ethtool) RestartNegotiation(ctx context.Context, device string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-r", device, "", opts...)
}

// GetAdapterStatistics `ethtool -S`
func (e *Ethtool) GetAdapterStatistics(ctx context.Context, device string, opts ...CallOption) (Statistics, error) {
	return fetch(ctx, e, FamilyStatistics, device, opts, ParseStatistics)
}

// GetStatisticsXonXoff `ethtool -S` 中的 xon/xoff 流控计数
func (e *Ethtool) GetStatisticsXonXoff(ctx context.Context, device string, opts ...CallOption) (XonXoffStatistics, error) {
	return fetch(ctx, e, FamilyXonXoff, device, opts, ParseXonXoffStatistics)
}

// ExecuteSelfTest `ethtool -t DEV [MODE]`，原样返回测试结果
func (e *Ethtool) ExecuteSelfTest(ctx context.Context, device, mode string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-t", device, mode, opts...)
}

// ChangeGenericOptions `ethtool -s DEV NAME VALUE`
func (e *Ethtool) ChangeGenericOptions(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-s", device, joinParams(name, value), opts...)
}

// GetPrivateFlags `ethtool --show-priv-flags`
func (e *Ethtool) GetPrivateFlags(ctx context.Context, device string, opts ...CallOption) (PrivateFlags, error) {
	return fetch(ctx, e, FamilyPrivateFlags, device, opts, ParsePrivateFlags)
}

// SetPrivateFlags `ethtool --set-priv-flags DEV FLAG VALUE`
func (e *Ethtool) SetPrivateFlags(ctx context.Context, device, flag, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "--set-priv-flags", device, joinParams(flag, value), opts...)
}

// GetRSSIndirectionTable `ethtool -x`，原样返回
func (e *Ethtool) GetRSSIndirectionTable(ctx context.Context, device string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-x", device, "", opts...)
}

// SetRSSIndirectionTable `ethtool -X DEV NAME [VALUE]`，如 "default" 或 "equal 20"
func (e *Ethtool) SetRSSIndirectionTable(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-X", device, joinParams(name, value), opts...)
}

// FlashFirmwareImage `ethtool -f DEV FILE [REGION]`
func (e *Ethtool) FlashFirmwareImage(ctx context.Context, device, file, region string, opts ...CallOption) (string, error) {
	if file == "" {
		return "", malformed("firmware file is required")
	}
	return e.Execute(ctx, "-f", device, joinParams(file, region), opts...)
}

// UnloadDDPProfile `ethtool -f DEV - REGION`
func (e *Ethtool) UnloadDDPProfile(ctx context.Context, device, region string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-f", device, joinParams("-", region), opts...)
}

// GetFECSettings `ethtool --show-fec`
func (e *Ethtool) GetFECSettings(ctx context.Context, device string, opts ...CallOption) (FECSettings, error) {
	return fetch(ctx, e, FamilyFEC, device, opts, ParseFECSettings)
}

// SetFECSettings `ethtool --set-fec DEV NAME VALUE`
func (e *Ethtool) SetFECSettings(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "--set-fec", device, joinParams(name, value), opts...)
}

// DoRegisterDump `ethtool -d`，原样返回
func (e *Ethtool) DoRegisterDump(ctx context.Context, device string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-d", device, "", opts...)
}

// GetTimeStampingCapabilities `ethtool -T`，原样返回
func (e *Ethtool) GetTimeStampingCapabilities(ctx context.Context, device string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-T", device, "", opts...)
}

// GetPermHWAddress `ethtool -P`，返回永久 MAC 地址
func (e *Ethtool) GetPermHWAddress(ctx context.Context, device string, opts ...CallOption) (string, error) {
	out, err := e.Execute(ctx, "-P", device, "", opts...)
	if err != nil {
		return "", err
	}
	fm, err := ParseFields(FamilyDeviceInfo, out)
	if err != nil {
		return "", fmt.Errorf("permanent address %s: %w", device, err)
	}
	addr := fm.First("permanent_address")
	if addr == "" {
		return "", fmt.Errorf("permanent address %s: %w", device, ErrEmptyOutput)
	}
	return addr, nil
}

// DumpModuleEEPROM `ethtool -m DEV [PARAMS]`，原样返回
func (e *Ethtool) DumpModuleEEPROM(ctx context.Context, device, params string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-m", device, params, opts...)
}

// GetEEESettings `ethtool --show-eee`
func (e *Ethtool) GetEEESettings(ctx context.Context, device string, opts ...CallOption) (EEESettings, error) {
	return fetch(ctx, e, FamilyEEE, device, opts, ParseEEESettings)
}

// SetEEESettings `ethtool --set-eee DEV NAME VALUE`
func (e *Ethtool) SetEEESettings(ctx context.Context, device, name, value string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "--set-eee", device, joinParams(name, value), opts...)
}

// SetPHYTunable `ethtool --set-phy-tunable DEV PARAMS`
func (e *Ethtool) SetPHYTunable(ctx context.Context, device, params string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "--set-phy-tunable", device, params, opts...)
}

// ResetComponents `ethtool --reset DEV COMPONENT`
func (e *Ethtool) ResetComponents(ctx context.Context, device, component string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "--reset", device, component, opts...)
}

// GetDump `ethtool -w DEV [PARAMS]`
func (e *Ethtool) GetDump(ctx context.Context, device, params string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-w", device, params, opts...)
}

// SetDump `ethtool -W DEV PARAMS`
func (e *Ethtool) SetDump(ctx context.Context, device, params string, opts ...CallOption) (string, error) {
	return e.Execute(ctx, "-W", device, params, opts...)
}
