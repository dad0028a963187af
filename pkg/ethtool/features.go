package ethtool

import "github.com/sshcollectorpro/ethtoolpro/pkg/ethtool/parser"

// Features `ethtool -k` 的常见卸载特性；未列出的特性保存在 Extra 中
type Features struct {
	RXChecksumming             []string            `json:"rx_checksumming" yaml:"rx_checksumming"`
	TXChecksumming             []string            `json:"tx_checksumming" yaml:"tx_checksumming"`
	TXChecksumIPv4             []string            `json:"tx_checksum_ipv4" yaml:"tx_checksum_ipv4"`
	TXChecksumIPGeneric        []string            `json:"tx_checksum_ip_generic" yaml:"tx_checksum_ip_generic"`
	TXChecksumIPv6             []string            `json:"tx_checksum_ipv6" yaml:"tx_checksum_ipv6"`
	TXChecksumFCoECRC          []string            `json:"tx_checksum_fcoe_crc" yaml:"tx_checksum_fcoe_crc"`
	TXChecksumSCTP             []string            `json:"tx_checksum_sctp" yaml:"tx_checksum_sctp"`
	ScatterGather              []string            `json:"scatter_gather" yaml:"scatter_gather"`
	TXScatterGather            []string            `json:"tx_scatter_gather" yaml:"tx_scatter_gather"`
	TXScatterGatherFraglist    []string            `json:"tx_scatter_gather_fraglist" yaml:"tx_scatter_gather_fraglist"`
	TCPSegmentationOffload     []string            `json:"tcp_segmentation_offload" yaml:"tcp_segmentation_offload"`
	TXTCPSegmentation          []string            `json:"tx_tcp_segmentation" yaml:"tx_tcp_segmentation"`
	TXTCPECNSegmentation       []string            `json:"tx_tcp_ecn_segmentation" yaml:"tx_tcp_ecn_segmentation"`
	TXTCPMangleIDSegmentation  []string            `json:"tx_tcp_mangleid_segmentation" yaml:"tx_tcp_mangleid_segmentation"`
	TXTCP6Segmentation         []string            `json:"tx_tcp6_segmentation" yaml:"tx_tcp6_segmentation"`
	UDPFragmentationOffload    []string            `json:"udp_fragmentation_offload" yaml:"udp_fragmentation_offload"`
	GenericSegmentationOffload []string            `json:"generic_segmentation_offload" yaml:"generic_segmentation_offload"`
	GenericReceiveOffload      []string            `json:"generic_receive_offload" yaml:"generic_receive_offload"`
	LargeReceiveOffload        []string            `json:"large_receive_offload" yaml:"large_receive_offload"`
	RXVLANOffload              []string            `json:"rx_vlan_offload" yaml:"rx_vlan_offload"`
	TXVLANOffload              []string            `json:"tx_vlan_offload" yaml:"tx_vlan_offload"`
	NTupleFilters              []string            `json:"ntuple_filters" yaml:"ntuple_filters"`
	ReceiveHashing             []string            `json:"receive_hashing" yaml:"receive_hashing"`
	HighDMA                    []string            `json:"highdma" yaml:"highdma"`
	RXVLANFilter               []string            `json:"rx_vlan_filter" yaml:"rx_vlan_filter"`
	VLANChallenged             []string            `json:"vlan_challenged" yaml:"vlan_challenged"`
	TXLockless                 []string            `json:"tx_lockless" yaml:"tx_lockless"`
	NetnsLocal                 []string            `json:"netns_local" yaml:"netns_local"`
	TXGSORobust                []string            `json:"tx_gso_robust" yaml:"tx_gso_robust"`
	TXFCoESegmentation         []string            `json:"tx_fcoe_segmentation" yaml:"tx_fcoe_segmentation"`
	TXGRESegmentation          []string            `json:"tx_gre_segmentation" yaml:"tx_gre_segmentation"`
	TXGRECsumSegmentation      []string            `json:"tx_gre_csum_segmentation" yaml:"tx_gre_csum_segmentation"`
	TXIPXIP4Segmentation       []string            `json:"tx_ipxip4_segmentation" yaml:"tx_ipxip4_segmentation"`
	TXIPXIP6Segmentation       []string            `json:"tx_ipxip6_segmentation" yaml:"tx_ipxip6_segmentation"`
	TXUDPTnlSegmentation       []string            `json:"tx_udp_tnl_segmentation" yaml:"tx_udp_tnl_segmentation"`
	TXUDPTnlCsumSegmentation   []string            `json:"tx_udp_tnl_csum_segmentation" yaml:"tx_udp_tnl_csum_segmentation"`
	TXGSOPartial               []string            `json:"tx_gso_partial" yaml:"tx_gso_partial"`
	TXSCTPSegmentation         []string            `json:"tx_sctp_segmentation" yaml:"tx_sctp_segmentation"`
	TXESPSegmentation          []string            `json:"tx_esp_segmentation" yaml:"tx_esp_segmentation"`
	FCoEMTU                    []string            `json:"fcoe_mtu" yaml:"fcoe_mtu"`
	TXNocacheCopy              []string            `json:"tx_nocache_copy" yaml:"tx_nocache_copy"`
	Loopback                   []string            `json:"loopback" yaml:"loopback"`
	RXFCS                      []string            `json:"rx_fcs" yaml:"rx_fcs"`
	RXAll                      []string            `json:"rx_all" yaml:"rx_all"`
	TXVLANSTagHWInsert         []string            `json:"tx_vlan_stag_hw_insert" yaml:"tx_vlan_stag_hw_insert"`
	RXVLANSTagHWParse          []string            `json:"rx_vlan_stag_hw_parse" yaml:"rx_vlan_stag_hw_parse"`
	RXVLANSTagFilter           []string            `json:"rx_vlan_stag_filter" yaml:"rx_vlan_stag_filter"`
	L2FwdOffload               []string            `json:"l2_fwd_offload" yaml:"l2_fwd_offload"`
	HWTCOffload                []string            `json:"hw_tc_offload" yaml:"hw_tc_offload"`
	ESPHWOffload               []string            `json:"esp_hw_offload" yaml:"esp_hw_offload"`
	ESPTXCsumHWOffload         []string            `json:"esp_tx_csum_hw_offload" yaml:"esp_tx_csum_hw_offload"`
	RXUDPTunnelPortOffload     []string            `json:"rx_udp_tunnel_port_offload" yaml:"rx_udp_tunnel_port_offload"`
	Extra                      map[string][]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

var featureBindings = []binding[Features]{
	bind(func(r *Features) *[]string { return &r.RXChecksumming }, "rx_checksumming"),
	bind(func(r *Features) *[]string { return &r.TXChecksumming }, "tx_checksumming"),
	bind(func(r *Features) *[]string { return &r.TXChecksumIPv4 }, "tx_checksum_ipv4"),
	bind(func(r *Features) *[]string { return &r.TXChecksumIPGeneric }, "tx_checksum_ip_generic"),
	bind(func(r *Features) *[]string { return &r.TXChecksumIPv6 }, "tx_checksum_ipv6"),
	bind(func(r *Features) *[]string { return &r.TXChecksumFCoECRC }, "tx_checksum_fcoe_crc"),
	bind(func(r *Features) *[]string { return &r.TXChecksumSCTP }, "tx_checksum_sctp"),
	bind(func(r *Features) *[]string { return &r.ScatterGather }, "scatter_gather"),
	bind(func(r *Features) *[]string { return &r.TXScatterGather }, "tx_scatter_gather"),
	bind(func(r *Features) *[]string { return &r.TXScatterGatherFraglist }, "tx_scatter_gather_fraglist"),
	bind(func(r *Features) *[]string { return &r.TCPSegmentationOffload }, "tcp_segmentation_offload"),
	bind(func(r *Features) *[]string { return &r.TXTCPSegmentation }, "tx_tcp_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXTCPECNSegmentation }, "tx_tcp_ecn_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXTCPMangleIDSegmentation }, "tx_tcp_mangleid_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXTCP6Segmentation }, "tx_tcp6_segmentation"),
	bind(func(r *Features) *[]string { return &r.UDPFragmentationOffload }, "udp_fragmentation_offload"),
	bind(func(r *Features) *[]string { return &r.GenericSegmentationOffload }, "generic_segmentation_offload"),
	bind(func(r *Features) *[]string { return &r.GenericReceiveOffload }, "generic_receive_offload"),
	bind(func(r *Features) *[]string { return &r.LargeReceiveOffload }, "large_receive_offload"),
	bind(func(r *Features) *[]string { return &r.RXVLANOffload }, "rx_vlan_offload"),
	bind(func(r *Features) *[]string { return &r.TXVLANOffload }, "tx_vlan_offload"),
	bind(func(r *Features) *[]string { return &r.NTupleFilters }, "ntuple_filters"),
	bind(func(r *Features) *[]string { return &r.ReceiveHashing }, "receive_hashing"),
	bind(func(r *Features) *[]string { return &r.HighDMA }, "highdma"),
	bind(func(r *Features) *[]string { return &r.RXVLANFilter }, "rx_vlan_filter"),
	bind(func(r *Features) *[]string { return &r.VLANChallenged }, "vlan_challenged"),
	bind(func(r *Features) *[]string { return &r.TXLockless }, "tx_lockless"),
	bind(func(r *Features) *[]string { return &r.NetnsLocal }, "netns_local"),
	bind(func(r *Features) *[]string { return &r.TXGSORobust }, "tx_gso_robust"),
	bind(func(r *Features) *[]string { return &r.TXFCoESegmentation }, "tx_fcoe_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXGRESegmentation }, "tx_gre_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXGRECsumSegmentation }, "tx_gre_csum_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXIPXIP4Segmentation }, "tx_ipxip4_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXIPXIP6Segmentation }, "tx_ipxip6_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXUDPTnlSegmentation }, "tx_udp_tnl_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXUDPTnlCsumSegmentation }, "tx_udp_tnl_csum_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXGSOPartial }, "tx_gso_partial"),
	bind(func(r *Features) *[]string { return &r.TXSCTPSegmentation }, "tx_sctp_segmentation"),
	bind(func(r *Features) *[]string { return &r.TXESPSegmentation }, "tx_esp_segmentation"),
	bind(func(r *Features) *[]string { return &r.FCoEMTU }, "fcoe_mtu"),
	bind(func(r *Features) *[]string { return &r.TXNocacheCopy }, "tx_nocache_copy"),
	bind(func(r *Features) *[]string { return &r.Loopback }, "loopback"),
	bind(func(r *Features) *[]string { return &r.RXFCS }, "rx_fcs"),
	bind(func(r *Features) *[]string { return &r.RXAll }, "rx_all"),
	bind(func(r *Features) *[]string { return &r.TXVLANSTagHWInsert }, "tx_vlan_stag_hw_insert"),
	bind(func(r *Features) *[]string { return &r.RXVLANSTagHWParse }, "rx_vlan_stag_hw_parse"),
	bind(func(r *Features) *[]string { return &r.RXVLANSTagFilter }, "rx_vlan_stag_filter"),
	bind(func(r *Features) *[]string { return &r.L2FwdOffload }, "l2_fwd_offload"),
	bind(func(r *Features) *[]string { return &r.HWTCOffload }, "hw_tc_offload"),
	bind(func(r *Features) *[]string { return &r.ESPHWOffload }, "esp_hw_offload"),
	bind(func(r *Features) *[]string { return &r.ESPTXCsumHWOffload }, "esp_tx_csum_hw_offload"),
	bind(func(r *Features) *[]string { return &r.RXUDPTunnelPortOffload }, "rx_udp_tunnel_port_offload"),
}

var featureKeys = boundKeys(featureBindings)

func assembleFeatures(fm *parser.FieldMap) Features {
	rec := assemble(fm, featureBindings)
	if extra := countersFrom(fm, featureKeys); extra.Len() > 0 {
		rec.Extra = extra.Values
	}
	return rec
}
