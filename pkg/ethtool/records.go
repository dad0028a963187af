package ethtool

import "github.com/sshcollectorpro/ethtoolpro/pkg/ethtool/parser"

// binding 记录字段与候选规范键（按优先级排列）的静态绑定
type binding[T any] struct {
	keys  []string
	field func(*T) *[]string
}

func bind[T any](field func(*T) *[]string, keys ...string) binding[T] {
	return binding[T]{keys: keys, field: field}
}

// assemble 按绑定表构造记录；缺失的键绑定为空序列
func assemble[T any](fm *parser.FieldMap, table []binding[T]) T {
	var rec T
	for _, b := range table {
		dst := b.field(&rec)
		*dst = []string{}
		for _, k := range b.keys {
			if v, ok := fm.Lookup(k); ok {
				*dst = v
				break
			}
		}
	}
	return rec
}

// boundKeys 绑定表涉及的全部规范键
func boundKeys[T any](table []binding[T]) map[string]struct{} {
	out := make(map[string]struct{})
	for _, b := range table {
		for _, k := range b.keys {
			out[k] = struct{}{}
		}
	}
	return out
}

// DeviceInfo `ethtool DEV` 的输出
type DeviceInfo struct {
	SupportedPorts                       []string `json:"supported_ports" yaml:"supported_ports"`
	SupportedLinkModes                   []string `json:"supported_link_modes" yaml:"supported_link_modes"`
	SupportedPauseFrameUse               []string `json:"supported_pause_frame_use" yaml:"supported_pause_frame_use"`
	SupportsAutoNegotiation              []string `json:"supports_auto_negotiation" yaml:"supports_auto_negotiation"`
	SupportedFECModes                    []string `json:"supported_fec_modes" yaml:"supported_fec_modes"`
	AdvertisedLinkModes                  []string `json:"advertised_link_modes" yaml:"advertised_link_modes"`
	AdvertisedPauseFrameUse              []string `json:"advertised_pause_frame_use" yaml:"advertised_pause_frame_use"`
	AdvertisedAutoNegotiation            []string `json:"advertised_auto_negotiation" yaml:"advertised_auto_negotiation"`
	AdvertisedFECModes                   []string `json:"advertised_fec_modes" yaml:"advertised_fec_modes"`
	LinkPartnerAdvertisedLinkModes       []string `json:"link_partner_advertised_link_modes" yaml:"link_partner_advertised_link_modes"`
	LinkPartnerAdvertisedPauseFrameUse   []string `json:"link_partner_advertised_pause_frame_use" yaml:"link_partner_advertised_pause_frame_use"`
	LinkPartnerAdvertisedAutoNegotiation []string `json:"link_partner_advertised_auto_negotiation" yaml:"link_partner_advertised_auto_negotiation"`
	LinkPartnerAdvertisedFECModes        []string `json:"link_partner_advertised_fec_modes" yaml:"link_partner_advertised_fec_modes"`
	Speed                                []string `json:"speed" yaml:"speed"`
	Duplex                               []string `json:"duplex" yaml:"duplex"`
	Lanes                                []string `json:"lanes" yaml:"lanes"`
	Port                                 []string `json:"port" yaml:"port"`
	PHYAD                                []string `json:"phyad" yaml:"phyad"`
	Transceiver                          []string `json:"transceiver" yaml:"transceiver"`
	AutoNegotiation                      []string `json:"auto_negotiation" yaml:"auto_negotiation"`
	MDIX                                 []string `json:"mdi_x" yaml:"mdi_x"`
	SupportsWakeOn                       []string `json:"supports_wake_on" yaml:"supports_wake_on"`
	WakeOn                               []string `json:"wake_on" yaml:"wake_on"`
	CurrentMessageLevel                  []string `json:"current_message_level" yaml:"current_message_level"`
	LinkDetected                         []string `json:"link_detected" yaml:"link_detected"`
}

var deviceInfoBindings = []binding[DeviceInfo]{
	bind(func(r *DeviceInfo) *[]string { return &r.SupportedPorts }, "supported_ports"),
	bind(func(r *DeviceInfo) *[]string { return &r.SupportedLinkModes }, "supported_link_modes"),
	bind(func(r *DeviceInfo) *[]string { return &r.SupportedPauseFrameUse }, "supported_pause_frame_use"),
	bind(func(r *DeviceInfo) *[]string { return &r.SupportsAutoNegotiation }, "supports_auto_negotiation"),
	bind(func(r *DeviceInfo) *[]string { return &r.SupportedFECModes }, "supported_fec_modes"),
	bind(func(r *DeviceInfo) *[]string { return &r.AdvertisedLinkModes }, "advertised_link_modes"),
	bind(func(r *DeviceInfo) *[]string { return &r.AdvertisedPauseFrameUse }, "advertised_pause_frame_use"),
	bind(func(r *DeviceInfo) *[]string { return &r.AdvertisedAutoNegotiation }, "advertised_auto_negotiation"),
	bind(func(r *DeviceInfo) *[]string { return &r.AdvertisedFECModes }, "advertised_fec_modes"),
	bind(func(r *DeviceInfo) *[]string { return &r.LinkPartnerAdvertisedLinkModes }, "link_partner_advertised_link_modes"),
	bind(func(r *DeviceInfo) *[]string { return &r.LinkPartnerAdvertisedPauseFrameUse }, "link_partner_advertised_pause_frame_use"),
	bind(func(r *DeviceInfo) *[]string { return &r.LinkPartnerAdvertisedAutoNegotiation }, "link_partner_advertised_auto_negotiation"),
	bind(func(r *DeviceInfo) *[]string { return &r.LinkPartnerAdvertisedFECModes }, "link_partner_advertised_fec_modes"),
	bind(func(r *DeviceInfo) *[]string { return &r.Speed }, "speed"),
	bind(func(r *DeviceInfo) *[]string { return &r.Duplex }, "duplex"),
	bind(func(r *DeviceInfo) *[]string { return &r.Lanes }, "lanes"),
	bind(func(r *DeviceInfo) *[]string { return &r.Port }, "port"),
	bind(func(r *DeviceInfo) *[]string { return &r.PHYAD }, "phyad"),
	bind(func(r *DeviceInfo) *[]string { return &r.Transceiver }, "transceiver"),
	bind(func(r *DeviceInfo) *[]string { return &r.AutoNegotiation }, "auto_negotiation"),
	bind(func(r *DeviceInfo) *[]string { return &r.MDIX }, "mdi_x"),
	bind(func(r *DeviceInfo) *[]string { return &r.SupportsWakeOn }, "supports_wake_on"),
	bind(func(r *DeviceInfo) *[]string { return &r.WakeOn }, "wake_on"),
	bind(func(r *DeviceInfo) *[]string { return &r.CurrentMessageLevel }, "current_message_level"),
	bind(func(r *DeviceInfo) *[]string { return &r.LinkDetected }, "link_detected"),
}

// PauseOptions `ethtool -a`
type PauseOptions struct {
	Autonegotiate []string `json:"autonegotiate" yaml:"autonegotiate"`
	RX            []string `json:"rx" yaml:"rx"`
	TX            []string `json:"tx" yaml:"tx"`
	RXNegotiated  []string `json:"rx_negotiated" yaml:"rx_negotiated"`
	TXNegotiated  []string `json:"tx_negotiated" yaml:"tx_negotiated"`
}

var pauseBindings = []binding[PauseOptions]{
	bind(func(r *PauseOptions) *[]string { return &r.Autonegotiate }, "autonegotiate"),
	bind(func(r *PauseOptions) *[]string { return &r.RX }, "rx"),
	bind(func(r *PauseOptions) *[]string { return &r.TX }, "tx"),
	bind(func(r *PauseOptions) *[]string { return &r.RXNegotiated }, "rx_negotiated"),
	bind(func(r *PauseOptions) *[]string { return &r.TXNegotiated }, "tx_negotiated"),
}

// CoalesceOptions `ethtool -c`
type CoalesceOptions struct {
	AdaptiveRX      []string `json:"adaptive_rx" yaml:"adaptive_rx"`
	AdaptiveTX      []string `json:"adaptive_tx" yaml:"adaptive_tx"`
	StatsBlockUsecs []string `json:"stats_block_usecs" yaml:"stats_block_usecs"`
	SampleInterval  []string `json:"sample_interval" yaml:"sample_interval"`
	PktRateLow      []string `json:"pkt_rate_low" yaml:"pkt_rate_low"`
	PktRateHigh     []string `json:"pkt_rate_high" yaml:"pkt_rate_high"`
	RXUsecs         []string `json:"rx_usecs" yaml:"rx_usecs"`
	RXFrames        []string `json:"rx_frames" yaml:"rx_frames"`
	RXUsecsIRQ      []string `json:"rx_usecs_irq" yaml:"rx_usecs_irq"`
	RXFramesIRQ     []string `json:"rx_frames_irq" yaml:"rx_frames_irq"`
	TXUsecs         []string `json:"tx_usecs" yaml:"tx_usecs"`
	TXFrames        []string `json:"tx_frames" yaml:"tx_frames"`
	TXUsecsIRQ      []string `json:"tx_usecs_irq" yaml:"tx_usecs_irq"`
	TXFramesIRQ     []string `json:"tx_frames_irq" yaml:"tx_frames_irq"`
	RXUsecsLow      []string `json:"rx_usecs_low" yaml:"rx_usecs_low"`
	RXFrameLow      []string `json:"rx_frame_low" yaml:"rx_frame_low"`
	TXUsecsLow      []string `json:"tx_usecs_low" yaml:"tx_usecs_low"`
	TXFrameLow      []string `json:"tx_frame_low" yaml:"tx_frame_low"`
	RXUsecsHigh     []string `json:"rx_usecs_high" yaml:"rx_usecs_high"`
	RXFrameHigh     []string `json:"rx_frame_high" yaml:"rx_frame_high"`
	TXUsecsHigh     []string `json:"tx_usecs_high" yaml:"tx_usecs_high"`
	TXFrameHigh     []string `json:"tx_frame_high" yaml:"tx_frame_high"`
	CQEModeRX       []string `json:"cqe_mode_rx" yaml:"cqe_mode_rx"`
	CQEModeTX       []string `json:"cqe_mode_tx" yaml:"cqe_mode_tx"`
}

var coalesceBindings = []binding[CoalesceOptions]{
	bind(func(r *CoalesceOptions) *[]string { return &r.AdaptiveRX }, "adaptive_rx"),
	bind(func(r *CoalesceOptions) *[]string { return &r.AdaptiveTX }, "adaptive_tx"),
	bind(func(r *CoalesceOptions) *[]string { return &r.StatsBlockUsecs }, "stats_block_usecs"),
	bind(func(r *CoalesceOptions) *[]string { return &r.SampleInterval }, "sample_interval"),
	bind(func(r *CoalesceOptions) *[]string { return &r.PktRateLow }, "pkt_rate_low"),
	bind(func(r *CoalesceOptions) *[]string { return &r.PktRateHigh }, "pkt_rate_high"),
	// 部分驱动打印 "rx-usecs.nic"
	bind(func(r *CoalesceOptions) *[]string { return &r.RXUsecs }, "rx_usecs", "rx_usecs_nic"),
	bind(func(r *CoalesceOptions) *[]string { return &r.RXFrames }, "rx_frames"),
	bind(func(r *CoalesceOptions) *[]string { return &r.RXUsecsIRQ }, "rx_usecs_irq"),
	bind(func(r *CoalesceOptions) *[]string { return &r.RXFramesIRQ }, "rx_frames_irq"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXUsecs }, "tx_usecs"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXFrames }, "tx_frames"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXUsecsIRQ }, "tx_usecs_irq"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXFramesIRQ }, "tx_frames_irq"),
	bind(func(r *CoalesceOptions) *[]string { return &r.RXUsecsLow }, "rx_usecs_low"),
	bind(func(r *CoalesceOptions) *[]string { return &r.RXFrameLow }, "rx_frame_low", "rx_frames_low"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXUsecsLow }, "tx_usecs_low"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXFrameLow }, "tx_frame_low", "tx_frames_low"),
	bind(func(r *CoalesceOptions) *[]string { return &r.RXUsecsHigh }, "rx_usecs_high"),
	bind(func(r *CoalesceOptions) *[]string { return &r.RXFrameHigh }, "rx_frame_high", "rx_frames_high"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXUsecsHigh }, "tx_usecs_high"),
	bind(func(r *CoalesceOptions) *[]string { return &r.TXFrameHigh }, "tx_frame_high", "tx_frames_high"),
	bind(func(r *CoalesceOptions) *[]string { return &r.CQEModeRX }, "cqe_mode_rx"),
	bind(func(r *CoalesceOptions) *[]string { return &r.CQEModeTX }, "cqe_mode_tx"),
}

// RingParameters `ethtool -g`
type RingParameters struct {
	PresetMaxRX           []string `json:"preset_max_rx" yaml:"preset_max_rx"`
	PresetMaxRXMini       []string `json:"preset_max_rx_mini" yaml:"preset_max_rx_mini"`
	PresetMaxRXJumbo      []string `json:"preset_max_rx_jumbo" yaml:"preset_max_rx_jumbo"`
	PresetMaxTX           []string `json:"preset_max_tx" yaml:"preset_max_tx"`
	CurrentHWRX           []string `json:"current_hw_rx" yaml:"current_hw_rx"`
	CurrentHWRXMini       []string `json:"current_hw_rx_mini" yaml:"current_hw_rx_mini"`
	CurrentHWRXJumbo      []string `json:"current_hw_rx_jumbo" yaml:"current_hw_rx_jumbo"`
	CurrentHWTX           []string `json:"current_hw_tx" yaml:"current_hw_tx"`
	CurrentHWRXBufLen     []string `json:"current_hw_rx_buf_len" yaml:"current_hw_rx_buf_len"`
	CurrentHWCQESize      []string `json:"current_hw_cqe_size" yaml:"current_hw_cqe_size"`
	CurrentHWTXPush       []string `json:"current_hw_tx_push" yaml:"current_hw_tx_push"`
	CurrentHWRXPush       []string `json:"current_hw_rx_push" yaml:"current_hw_rx_push"`
	CurrentHWTCPDataSplit []string `json:"current_hw_tcp_data_split" yaml:"current_hw_tcp_data_split"`
}

var ringBindings = []binding[RingParameters]{
	bind(func(r *RingParameters) *[]string { return &r.PresetMaxRX }, "preset_max_rx"),
	bind(func(r *RingParameters) *[]string { return &r.PresetMaxRXMini }, "preset_max_rx_mini"),
	bind(func(r *RingParameters) *[]string { return &r.PresetMaxRXJumbo }, "preset_max_rx_jumbo"),
	bind(func(r *RingParameters) *[]string { return &r.PresetMaxTX }, "preset_max_tx"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWRX }, "current_hw_rx"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWRXMini }, "current_hw_rx_mini"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWRXJumbo }, "current_hw_rx_jumbo"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWTX }, "current_hw_tx"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWRXBufLen }, "current_hw_rx_buf_len"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWCQESize }, "current_hw_cqe_size"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWTXPush }, "current_hw_tx_push"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWRXPush }, "current_hw_rx_push"),
	bind(func(r *RingParameters) *[]string { return &r.CurrentHWTCPDataSplit }, "current_hw_tcp_data_split"),
}

// DriverInfo `ethtool -i`
type DriverInfo struct {
	Driver               []string `json:"driver" yaml:"driver"`
	Version              []string `json:"version" yaml:"version"`
	FirmwareVersion      []string `json:"firmware_version" yaml:"firmware_version"`
	ExpansionROMVersion  []string `json:"expansion_rom_version" yaml:"expansion_rom_version"`
	BusInfo              []string `json:"bus_info" yaml:"bus_info"`
	SupportsStatistics   []string `json:"supports_statistics" yaml:"supports_statistics"`
	SupportsTest         []string `json:"supports_test" yaml:"supports_test"`
	SupportsEEPROMAccess []string `json:"supports_eeprom_access" yaml:"supports_eeprom_access"`
	SupportsRegisterDump []string `json:"supports_register_dump" yaml:"supports_register_dump"`
	SupportsPrivFlags    []string `json:"supports_priv_flags" yaml:"supports_priv_flags"`
}

var driverBindings = []binding[DriverInfo]{
	bind(func(r *DriverInfo) *[]string { return &r.Driver }, "driver"),
	bind(func(r *DriverInfo) *[]string { return &r.Version }, "version"),
	bind(func(r *DriverInfo) *[]string { return &r.FirmwareVersion }, "firmware_version"),
	bind(func(r *DriverInfo) *[]string { return &r.ExpansionROMVersion }, "expansion_rom_version"),
	bind(func(r *DriverInfo) *[]string { return &r.BusInfo }, "bus_info"),
	bind(func(r *DriverInfo) *[]string { return &r.SupportsStatistics }, "supports_statistics"),
	bind(func(r *DriverInfo) *[]string { return &r.SupportsTest }, "supports_test"),
	bind(func(r *DriverInfo) *[]string { return &r.SupportsEEPROMAccess }, "supports_eeprom_access"),
	bind(func(r *DriverInfo) *[]string { return &r.SupportsRegisterDump }, "supports_register_dump"),
	bind(func(r *DriverInfo) *[]string { return &r.SupportsPrivFlags }, "supports_priv_flags"),
}

// ChannelParameters `ethtool -l`
type ChannelParameters struct {
	PresetMaxRX       []string `json:"preset_max_rx" yaml:"preset_max_rx"`
	PresetMaxTX       []string `json:"preset_max_tx" yaml:"preset_max_tx"`
	PresetMaxOther    []string `json:"preset_max_other" yaml:"preset_max_other"`
	PresetMaxCombined []string `json:"preset_max_combined" yaml:"preset_max_combined"`
	CurrentHWRX       []string `json:"current_hw_rx" yaml:"current_hw_rx"`
	CurrentHWTX       []string `json:"current_hw_tx" yaml:"current_hw_tx"`
	CurrentHWOther    []string `json:"current_hw_other" yaml:"current_hw_other"`
	CurrentHWCombined []string `json:"current_hw_combined" yaml:"current_hw_combined"`
}

var channelBindings = []binding[ChannelParameters]{
	bind(func(r *ChannelParameters) *[]string { return &r.PresetMaxRX }, "preset_max_rx"),
	bind(func(r *ChannelParameters) *[]string { return &r.PresetMaxTX }, "preset_max_tx"),
	bind(func(r *ChannelParameters) *[]string { return &r.PresetMaxOther }, "preset_max_other"),
	bind(func(r *ChannelParameters) *[]string { return &r.PresetMaxCombined }, "preset_max_combined"),
	bind(func(r *ChannelParameters) *[]string { return &r.CurrentHWRX }, "current_hw_rx"),
	bind(func(r *ChannelParameters) *[]string { return &r.CurrentHWTX }, "current_hw_tx"),
	bind(func(r *ChannelParameters) *[]string { return &r.CurrentHWOther }, "current_hw_other"),
	bind(func(r *ChannelParameters) *[]string { return &r.CurrentHWCombined }, "current_hw_combined"),
}

// FECSettings `ethtool --show-fec`
type FECSettings struct {
	ConfiguredFECEncodings []string `json:"configured_fec_encodings" yaml:"configured_fec_encodings"`
	ActiveFECEncoding      []string `json:"active_fec_encoding" yaml:"active_fec_encoding"`
}

var fecBindings = []binding[FECSettings]{
	bind(func(r *FECSettings) *[]string { return &r.ConfiguredFECEncodings },
		"configured_fec_encodings", "supported_configured_fec_encodings"),
	bind(func(r *FECSettings) *[]string { return &r.ActiveFECEncoding },
		"active_fec_encoding", "active_fec_encodings"),
}

// EEESettings `ethtool --show-eee`
type EEESettings struct {
	EEEStatus                         []string `json:"eee_status" yaml:"eee_status"`
	TxLPI                             []string `json:"tx_lpi" yaml:"tx_lpi"`
	SupportedEEELinkModes             []string `json:"supported_eee_link_modes" yaml:"supported_eee_link_modes"`
	AdvertisedEEELinkModes            []string `json:"advertised_eee_link_modes" yaml:"advertised_eee_link_modes"`
	LinkPartnerAdvertisedEEELinkModes []string `json:"link_partner_advertised_eee_link_modes" yaml:"link_partner_advertised_eee_link_modes"`
}

var eeeBindings = []binding[EEESettings]{
	bind(func(r *EEESettings) *[]string { return &r.EEEStatus }, "eee_status"),
	bind(func(r *EEESettings) *[]string { return &r.TxLPI }, "tx_lpi"),
	bind(func(r *EEESettings) *[]string { return &r.SupportedEEELinkModes }, "supported_eee_link_modes"),
	bind(func(r *EEESettings) *[]string { return &r.AdvertisedEEELinkModes }, "advertised_eee_link_modes"),
	bind(func(r *EEESettings) *[]string { return &r.LinkPartnerAdvertisedEEELinkModes }, "link_partner_advertised_eee_link_modes"),
}

// XonXoffStatistics `ethtool -S` 中的流控计数
type XonXoffStatistics struct {
	RXFlowControlXON  []string `json:"rx_flow_control_xon" yaml:"rx_flow_control_xon"`
	RXFlowControlXOFF []string `json:"rx_flow_control_xoff" yaml:"rx_flow_control_xoff"`
	TXFlowControlXON  []string `json:"tx_flow_control_xon" yaml:"tx_flow_control_xon"`
	TXFlowControlXOFF []string `json:"tx_flow_control_xoff" yaml:"tx_flow_control_xoff"`
}

var xonXoffBindings = []binding[XonXoffStatistics]{
	bind(func(r *XonXoffStatistics) *[]string { return &r.RXFlowControlXON }, "rx_flow_control_xon"),
	bind(func(r *XonXoffStatistics) *[]string { return &r.RXFlowControlXOFF }, "rx_flow_control_xoff"),
	bind(func(r *XonXoffStatistics) *[]string { return &r.TXFlowControlXON }, "tx_flow_control_xon"),
	bind(func(r *XonXoffStatistics) *[]string { return &r.TXFlowControlXOFF }, "tx_flow_control_xoff"),
}

// Counters 键集合随驱动变化的记录（统计计数、私有标志）
// Names 保留输出中的出现顺序
type Counters struct {
	Names  []string            `json:"names" yaml:"names"`
	Values map[string][]string `json:"values" yaml:"values"`
}

// Get 返回指定键的取值，缺失时为空序列
func (c Counters) Get(name string) []string {
	if v, ok := c.Values[name]; ok {
		return append([]string{}, v...)
	}
	return []string{}
}

// Len 键数量
func (c Counters) Len() int {
	return len(c.Names)
}

func countersFrom(fm *parser.FieldMap, skip map[string]struct{}) Counters {
	c := Counters{Names: []string{}, Values: map[string][]string{}}
	for _, k := range fm.Keys() {
		if _, ok := skip[k]; ok {
			continue
		}
		c.Names = append(c.Names, k)
		c.Values[k] = fm.Get(k)
	}
	return c
}

// Statistics `ethtool -S`
type Statistics struct {
	Counters `yaml:",inline"`
}

// PrivateFlags `ethtool --show-priv-flags`
type PrivateFlags struct {
	Counters `yaml:",inline"`
}
