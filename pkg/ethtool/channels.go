package ethtool

import (
	"context"
	"strconv"
	"strings"
)

var channelNames = map[string]struct{}{
	"rx":       {},
	"tx":       {},
	"other":    {},
	"combined": {},
}

// channelArgs 调用方给出的通道名与数量（保持调用顺序）
type channelArgs struct {
	names  []string
	values []string
}

func parseChannelArgs(names, values string) (channelArgs, error) {
	a := channelArgs{names: strings.Fields(strings.ToLower(names)), values: strings.Fields(values)}
	if len(a.names) == 0 {
		return a, malformed("channel parameter name is required")
	}
	seen := make(map[string]struct{}, len(a.names))
	for _, n := range a.names {
		if _, ok := channelNames[n]; !ok {
			return a, malformed("unknown channel parameter %q in %q", n, names)
		}
		if _, dup := seen[n]; dup {
			return a, malformed("channel parameter %q given twice", n)
		}
		seen[n] = struct{}{}
	}
	if len(a.names) != len(a.values) {
		return a, malformed("%d channel parameters but %d values (%q / %q)", len(a.names), len(a.values), names, values)
	}
	return a, nil
}

func (a channelArgs) params() string {
	parts := make([]string, 0, 2*len(a.names))
	for i := range a.names {
		parts = append(parts, a.names[i], a.values[i])
	}
	return strings.Join(parts, " ")
}

// currentChannel 读取当前硬件设置中的 rx/tx 通道数
func (e *Ethtool) currentChannel(ctx context.Context, device, name string, opts []CallOption) (string, error) {
	cur, err := e.GetChannelParameters(ctx, device, opts...)
	if err != nil {
		return "", err
	}
	values := cur.CurrentHWTX
	if name == "rx" {
		values = cur.CurrentHWRX
	}
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", malformed("current %s channel count of %s is not reported", name, device)
	}
	return values[0], nil
}

// SetChannelParameters `ethtool -L DEV NAME VALUE ...`
// 只给出 rx 或 tx 时，另一项沿用当前硬件设置；其余组合按调用顺序透传
func (e *Ethtool) SetChannelParameters(ctx context.Context, device, names, values string, opts ...CallOption) (string, error) {
	args, err := parseChannelArgs(names, values)
	if err != nil {
		return "", err
	}
	params := args.params()
	if len(args.names) == 1 && (args.names[0] == "rx" || args.names[0] == "tx") {
		other := "tx"
		if args.names[0] == "tx" {
			other = "rx"
		}
		cur, err := e.currentChannel(ctx, device, other, opts)
		if err != nil {
			return "", err
		}
		params = joinParams(params, other, cur)
	}
	return e.Execute(ctx, "-L", device, params, opts...)
}

// SetChannelParametersAligned ice/idpf 驱动的通道设置
// 专用 rx 与专用 tx 队列不能同时非零；combined 必须大于 0
// 只给出 rx 或 tx 中的一项且非零时，另一项取当前硬件设置校验
func (e *Ethtool) SetChannelParametersAligned(ctx context.Context, device, names, values string, opts ...CallOption) (string, error) {
	args, err := parseChannelArgs(names, values)
	if err != nil {
		return "", err
	}
	counts := make(map[string]int, len(args.names))
	for i, n := range args.names {
		c, err := strconv.Atoi(args.values[i])
		if err != nil || c < 0 {
			return "", malformed("channel count %q for %s is not a non-negative integer", args.values[i], n)
		}
		counts[n] = c
	}
	if c, ok := counts["combined"]; ok && c == 0 {
		return "", malformed("combined channel count must be greater than 0")
	}

	rx, hasRX := counts["rx"]
	tx, hasTX := counts["tx"]
	switch {
	case hasRX && hasTX:
		if rx != 0 && tx != 0 {
			return "", malformed("rx (%d) and tx (%d) channels cannot both be non-zero", rx, tx)
		}
	case hasRX && rx != 0:
		if err := e.requireZero(ctx, device, "tx", opts); err != nil {
			return "", err
		}
	case hasTX && tx != 0:
		if err := e.requireZero(ctx, device, "rx", opts); err != nil {
			return "", err
		}
	}
	return e.Execute(ctx, "-L", device, args.params(), opts...)
}

func (e *Ethtool) requireZero(ctx context.Context, device, name string, opts []CallOption) error {
	cur, err := e.currentChannel(ctx, device, name, opts)
	if err != nil {
		return err
	}
	if n, err := strconv.Atoi(cur); err != nil || n != 0 {
		return malformed("current %s channel count of %s is %s; rx and tx channels cannot both be non-zero", name, device, cur)
	}
	return nil
}
