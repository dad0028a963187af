package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sshcollectorpro/ethtoolpro/addone/driver"
	"github.com/sshcollectorpro/ethtoolpro/internal/config"
	"github.com/sshcollectorpro/ethtoolpro/internal/database"
	"github.com/sshcollectorpro/ethtoolpro/internal/model"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ssh"
)

// autoDriver 根据 `ethtool -i` 的 driver 字段选择插件
const autoDriver = "auto"

// ErrInvalidTarget 目标参数不完整
var ErrInvalidTarget = errors.New("invalid target")

// Target 执行目标：远端主机或本机上的一块网卡
type Target struct {
	DeviceIP  string `json:"device_ip"`
	Port      int    `json:"port"`
	UserName  string `json:"username"`
	Password  string `json:"password"`
	KeyFile   string `json:"key_file"`
	Local     bool   `json:"local"`
	Interface string `json:"interface"`
	Namespace string `json:"namespace"`
	Driver    string `json:"driver"`
}

// hostLabel 日志与落库使用的主机标识
func (t Target) hostLabel() string {
	if t.Local {
		return "local"
	}
	return t.DeviceIP
}

func (t Target) validate(needInterface bool) error {
	if !t.Local {
		if strings.TrimSpace(t.DeviceIP) == "" {
			return fmt.Errorf("%w: device_ip is required", ErrInvalidTarget)
		}
		if strings.TrimSpace(t.UserName) == "" {
			return fmt.Errorf("%w: username is required", ErrInvalidTarget)
		}
		if t.Port < 0 || t.Port > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalidTarget, t.Port)
		}
	}
	if needInterface && strings.TrimSpace(t.Interface) == "" {
		return fmt.Errorf("%w: interface is required", ErrInvalidTarget)
	}
	return nil
}

// QueryRequest 结构化查询
type QueryRequest struct {
	Target
	Family string `json:"family" binding:"required"`
}

// QueryResponse 查询结果
type QueryResponse struct {
	DeviceIP   string `json:"device_ip"`
	Interface  string `json:"interface"`
	Family     string `json:"family"`
	Record     any    `json:"record"`
	DurationMS int64  `json:"duration_ms"`
}

// SetRequest 设置类操作：pause|coalesce|ring|features|channels|private_flags|rss|fec|eee|generic
type SetRequest struct {
	Target
	Operation string `json:"operation" binding:"required"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

// RawRequest 原样返回输出的操作
type RawRequest struct {
	Target
	Operation string `json:"operation" binding:"required"`
	// Option execute 的 ethtool 选项，或 flow_get/flow_set 的 -u|-n|-U|-N
	Option   string `json:"option"`
	Params   string `json:"params"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Duration int    `json:"duration"`
	File     string `json:"file"`
	Region   string `json:"region"`
}

// CommandResponse 设置与原样操作的结果
type CommandResponse struct {
	DeviceIP   string `json:"device_ip"`
	Interface  string `json:"interface"`
	Operation  string `json:"operation"`
	Output     string `json:"output"`
	DurationMS int64  `json:"duration_ms"`
}

// setOperation 设置类操作的实现
type setOperation func(ctx context.Context, e *ethtool.Ethtool, p driver.Plugin, req *SetRequest, opts []ethtool.CallOption) (string, error)

var setOperations = map[string]setOperation{
	"pause": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetPauseOptions(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"coalesce": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetCoalesceOptions(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"ring": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetRingParameters(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"features": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetProtocolOffloadAndFeatureState(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"channels": func(ctx context.Context, e *ethtool.Ethtool, p driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return p.SetChannels(ctx, e, r.Interface, r.Name, r.Value, opts...)
	},
	"private_flags": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetPrivateFlags(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"rss": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetRSSIndirectionTable(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"fec": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetFECSettings(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"eee": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetEEESettings(ctx, r.Interface, r.Name, r.Value, opts...)
	},
	"generic": func(ctx context.Context, e *ethtool.Ethtool, _ driver.Plugin, r *SetRequest, opts []ethtool.CallOption) (string, error) {
		return e.ChangeGenericOptions(ctx, r.Interface, r.Name, r.Value, opts...)
	},
}

// rawOperation 原样输出操作的实现
type rawOperation func(ctx context.Context, e *ethtool.Ethtool, req *RawRequest, opts []ethtool.CallOption) (string, error)

var rawOperations = map[string]rawOperation{
	"execute": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.Execute(ctx, r.Option, r.Interface, r.Params, opts...)
	},
	"flow_get": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.GetReceiveNetworkFlowClassification(ctx, r.Interface, ethtool.FlowOption(r.Option), r.Name, r.Value, opts...)
	},
	"flow_set": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetReceiveNetworkFlowClassification(ctx, r.Interface, ethtool.FlowOption(r.Option), r.Params, opts...)
	},
	"identify": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.ShowVisiblePortIdentification(ctx, r.Interface, r.Duration, opts...)
	},
	"eeprom_change": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.ChangeEEPROMSettings(ctx, r.Interface, r.Params, opts...)
	},
	"eeprom_dump": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.DoEEPROMDump(ctx, r.Interface, r.Params, opts...)
	},
	"negotiate": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.RestartNegotiation(ctx, r.Interface, opts...)
	},
	"self_test": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.ExecuteSelfTest(ctx, r.Interface, r.Params, opts...)
	},
	"rss_get": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.GetRSSIndirectionTable(ctx, r.Interface, opts...)
	},
	"flash": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.FlashFirmwareImage(ctx, r.Interface, r.File, r.Region, opts...)
	},
	"ddp_unload": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.UnloadDDPProfile(ctx, r.Interface, r.Region, opts...)
	},
	"register_dump": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.DoRegisterDump(ctx, r.Interface, opts...)
	},
	"timestamping": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.GetTimeStampingCapabilities(ctx, r.Interface, opts...)
	},
	"perm_addr": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.GetPermHWAddress(ctx, r.Interface, opts...)
	},
	"module_eeprom": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.DumpModuleEEPROM(ctx, r.Interface, r.Params, opts...)
	},
	"phy_tunable": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetPHYTunable(ctx, r.Interface, r.Params, opts...)
	},
	"reset": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.ResetComponents(ctx, r.Interface, r.Params, opts...)
	},
	"dump_get": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.GetDump(ctx, r.Interface, r.Params, opts...)
	},
	"dump_set": func(ctx context.Context, e *ethtool.Ethtool, r *RawRequest, opts []ethtool.CallOption) (string, error) {
		return e.SetDump(ctx, r.Interface, r.Params, opts...)
	},
}

// FamilyNames 支持结构化查询的命令族
func FamilyNames() []string {
	fs := ethtool.Families()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}

// SetOperations 支持的设置类操作名
func SetOperations() []string { return sortedKeys(setOperations) }

// RawOperations 支持的原样输出操作名
func RawOperations() []string { return sortedKeys(rawOperations) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EthtoolService 按目标解析执行器并调用 ethtool 封装
type EthtoolService struct {
	cfg     *config.Config
	pool    *ssh.Pool
	metrics *metrics.Metrics
	// newRunner 为空时按 Target 使用 SSH 或本地执行器
	newRunner func(Target) (ethtool.Runner, error)
}

// NewEthtoolService 创建服务
func NewEthtoolService(cfg *config.Config, pool *ssh.Pool, m *metrics.Metrics) *EthtoolService {
	return &EthtoolService{cfg: cfg, pool: pool, metrics: m}
}

// WithRunnerFactory 替换执行器工厂（模拟器与测试使用）
func (s *EthtoolService) WithRunnerFactory(f func(Target) (ethtool.Runner, error)) *EthtoolService {
	s.newRunner = f
	return s
}

func (s *EthtoolService) runnerFor(t Target) (ethtool.Runner, error) {
	if s.newRunner != nil {
		return s.newRunner(t)
	}
	if t.Local {
		if err := CheckLocalInterface(t.Namespace, t.Interface); err != nil {
			return nil, err
		}
		return NewLocalRunner(), nil
	}
	if s.pool == nil {
		return nil, errors.New("ssh pool not configured")
	}
	port := t.Port
	if port == 0 {
		port = 22
	}
	return NewSSHRunner(s.pool, &ssh.ConnectionInfo{
		Host:     t.DeviceIP,
		Port:     port,
		Username: t.UserName,
		Password: t.Password,
		KeyFile:  t.KeyFile,
	}), nil
}

// client 构造目标对应的 ethtool 封装与调用选项
func (s *EthtoolService) client(t Target) (*ethtool.Ethtool, []ethtool.CallOption, error) {
	if t.Local && !s.cfg.Ethtool.AllowLocal {
		return nil, nil, fmt.Errorf("%w: local execution disabled (ethtool.allow_local)", ErrInvalidTarget)
	}
	r, err := s.runnerFor(t)
	if err != nil {
		return nil, nil, err
	}
	e := ethtool.New(&auditRunner{inner: r, host: t.hostLabel(), iface: t.Interface},
		ethtool.WithBinary(s.cfg.Ethtool.Binary),
		ethtool.WithSucceedCodes(s.cfg.Ethtool.SucceedCodes...),
		ethtool.WithMetrics(s.metrics),
	)
	var opts []ethtool.CallOption
	if ns := strings.TrimSpace(t.Namespace); ns != "" {
		opts = append(opts, ethtool.InNamespace(ns))
	}
	return e, opts, nil
}

// withTimeout 按配置为单次操作设置超时
func (s *EthtoolService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := s.cfg.Ethtool.CommandTimeout; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// plugin 选择驱动插件；auto 时读取 `ethtool -i`，失败回退 default
func (s *EthtoolService) plugin(ctx context.Context, e *ethtool.Ethtool, t Target, opts []ethtool.CallOption) driver.Plugin {
	name := strings.TrimSpace(t.Driver)
	if name == "" {
		name = s.cfg.Ethtool.DefaultDriver
	}
	if strings.EqualFold(name, autoDriver) {
		info, err := e.GetDriverInformation(ctx, t.Interface, opts...)
		if err != nil || len(info.Driver) == 0 {
			logger.Warn("Driver detection failed; using default profile", "device_ip", t.hostLabel(), "interface", t.Interface, "error", err)
			return driver.Get(driver.DefaultName)
		}
		name = info.Driver[0]
	}
	return driver.Get(name)
}

// Query 按命令族查询结构化记录
func (s *EthtoolService) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	if err := req.validate(true); err != nil {
		return nil, err
	}
	family, err := ethtool.ParseFamily(req.Family)
	if err != nil {
		return nil, err
	}
	e, opts, err := s.client(req.Target)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rec, err := e.Query(ctx, family, req.Interface, opts...)
	if err != nil {
		return nil, err
	}
	return &QueryResponse{
		DeviceIP:   req.hostLabel(),
		Interface:  req.Interface,
		Family:     string(family),
		Record:     rec,
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

// Apply 执行设置类操作
func (s *EthtoolService) Apply(ctx context.Context, req *SetRequest) (*CommandResponse, error) {
	if err := req.validate(true); err != nil {
		return nil, err
	}
	op := strings.ToLower(strings.TrimSpace(req.Operation))
	fn, ok := setOperations[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ethtool.ErrUnsupportedOption, req.Operation)
	}
	e, opts, err := s.client(req.Target)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	p := driver.Get(driver.DefaultName)
	if op == "channels" {
		p = s.plugin(ctx, e, req.Target, opts)
	}
	out, err := fn(ctx, e, p, req, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Ethtool setting applied", "device_ip", req.hostLabel(), "interface", req.Interface, "operation", op, "name", req.Name, "driver", p.Name())
	return &CommandResponse{
		DeviceIP:   req.hostLabel(),
		Interface:  req.Interface,
		Operation:  op,
		Output:     out,
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

// Raw 执行原样返回输出的操作
func (s *EthtoolService) Raw(ctx context.Context, req *RawRequest) (*CommandResponse, error) {
	op := strings.ToLower(strings.TrimSpace(req.Operation))
	if err := req.validate(op != "execute"); err != nil {
		return nil, err
	}
	fn, ok := rawOperations[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ethtool.ErrUnsupportedOption, req.Operation)
	}
	e, opts, err := s.client(req.Target)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	out, err := fn(ctx, e, req, opts)
	if err != nil {
		return nil, err
	}
	return &CommandResponse{
		DeviceIP:   req.hostLabel(),
		Interface:  req.Interface,
		Operation:  op,
		Output:     out,
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

// Version 确认 ethtool 可用并返回版本号
func (s *EthtoolService) Version(ctx context.Context, t Target) (string, error) {
	if err := t.validate(false); err != nil {
		return "", err
	}
	e, opts, err := s.client(t)
	if err != nil {
		return "", err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := e.CheckIfAvailable(ctx, opts...); err != nil {
		return "", err
	}
	return e.GetVersion(ctx, opts...)
}

// auditRunner 记录每条命令到 command_logs
type auditRunner struct {
	inner ethtool.Runner
	host  string
	iface string
}

func (a *auditRunner) Run(ctx context.Context, command string) (*ethtool.Result, error) {
	start := time.Now()
	res, err := a.inner.Run(ctx, command)

	row := &model.CommandLog{
		ID:        uuid.NewString(),
		DeviceIP:  a.host,
		Interface: a.iface,
		Command:   command,
		Duration:  time.Since(start).Milliseconds(),
	}
	if err != nil {
		row.ReturnCode = -1
		row.ErrorMsg = err.Error()
	} else {
		row.ReturnCode = res.ReturnCode
		row.Stderr = res.Stderr
	}
	if lerr := database.SaveCommandLog(row); lerr != nil {
		logger.Warn("Failed to save command log", "command", command, "error", lerr)
	}
	return res, err
}
