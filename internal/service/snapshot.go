package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sshcollectorpro/ethtoolpro/addone/driver"
	"github.com/sshcollectorpro/ethtoolpro/internal/config"
	"github.com/sshcollectorpro/ethtoolpro/internal/database"
	"github.com/sshcollectorpro/ethtoolpro/internal/model"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
)

// SnapshotRequest 快照请求；Families 为空时由驱动插件或配置决定
type SnapshotRequest struct {
	Target
	Families []string `json:"families"`
	Backend  string   `json:"backend"`
}

// SnapshotDocument 写入存储的快照文档
type SnapshotDocument struct {
	ID        string            `json:"id"`
	DeviceIP  string            `json:"device_ip"`
	Interface string            `json:"interface"`
	Namespace string            `json:"namespace,omitempty"`
	Driver    string            `json:"driver"`
	TakenAt   time.Time         `json:"taken_at"`
	Records   map[string]any    `json:"records"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// SnapshotResult 快照结果
type SnapshotResult struct {
	Snapshot model.Snapshot   `json:"snapshot"`
	Object   StoredObject     `json:"object"`
	Document SnapshotDocument `json:"document"`
}

// SnapshotService 并发采集多个命令族并保存
type SnapshotService struct {
	cfg     *config.Config
	eth     *EthtoolService
	writer  StorageWriter
	metrics *metrics.Metrics
}

// NewSnapshotService 创建快照服务
func NewSnapshotService(cfg *config.Config, eth *EthtoolService, writer StorageWriter, m *metrics.Metrics) *SnapshotService {
	return &SnapshotService{cfg: cfg, eth: eth, writer: writer, metrics: m}
}

// families 请求 > 具体驱动插件 > 配置 default_families > default 插件
func (s *SnapshotService) families(req *SnapshotRequest, plugin driver.Plugin) ([]ethtool.Family, error) {
	names := req.Families
	if len(names) == 0 && plugin.Name() == driver.DefaultName {
		names = s.cfg.Ethtool.DefaultFamilies
	}
	if len(names) == 0 {
		return plugin.SnapshotFamilies(), nil
	}
	out := make([]ethtool.Family, 0, len(names))
	seen := make(map[ethtool.Family]bool, len(names))
	for _, n := range names {
		f, err := ethtool.ParseFamily(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Take 采集快照；单个命令族失败记录在文档中，全部失败时返回错误
func (s *SnapshotService) Take(ctx context.Context, req *SnapshotRequest) (result *SnapshotResult, err error) {
	defer func() { s.metrics.RecordSnapshot(err == nil) }()

	if err := req.validate(true); err != nil {
		return nil, err
	}
	e, opts, err := s.eth.client(req.Target)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.eth.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	plugin := s.eth.plugin(ctx, e, req.Target, opts)
	families, err := s.families(req, plugin)
	if err != nil {
		return nil, err
	}

	doc := SnapshotDocument{
		ID:        uuid.NewString(),
		DeviceIP:  req.hostLabel(),
		Interface: req.Interface,
		Namespace: req.Namespace,
		Driver:    plugin.Name(),
		TakenAt:   start,
		Records:   make(map[string]any, len(families)),
		Errors:    map[string]string{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Ethtool.SnapshotConcurrency)
	for _, f := range families {
		f := f
		g.Go(func() error {
			rec, qerr := e.Query(gctx, f, req.Interface, opts...)
			mu.Lock()
			defer mu.Unlock()
			if qerr != nil {
				doc.Errors[string(f)] = qerr.Error()
				return nil
			}
			doc.Records[string(f)] = rec
			return nil
		})
	}
	_ = g.Wait()

	if len(doc.Records) == 0 {
		return nil, fmt.Errorf("snapshot %s/%s: all %d families failed: %s", doc.DeviceIP, doc.Interface, len(families), joinErrors(doc.Errors))
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	obj, err := s.writer.Write(ctx, StorageMeta{
		DeviceIP:   doc.DeviceIP,
		Interface:  doc.Interface,
		SnapshotID: doc.ID,
		TakenAt:    doc.TakenAt,
		Backend:    req.Backend,
	}, content, "application/json")
	if err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	row := model.Snapshot{
		ID:         doc.ID,
		DeviceIP:   doc.DeviceIP,
		Interface:  doc.Interface,
		Namespace:  doc.Namespace,
		Driver:     doc.Driver,
		Families:   familyList(families),
		Failed:     joinErrors(doc.Errors),
		Status:     model.SnapshotStatusSuccess,
		Backend:    obj.Backend,
		ObjectPath: obj.URI,
		Duration:   time.Since(start).Milliseconds(),
		CreatedAt:  start,
	}
	if len(doc.Errors) > 0 {
		row.Status = model.SnapshotStatusPartial
	}
	if database.GetDB() != nil {
		if err := database.SaveSnapshot(&row); err != nil {
			logger.Error("Failed to save snapshot row", "id", row.ID, "error", err)
		}
	}

	logger.Info("Snapshot taken", "id", doc.ID, "device_ip", doc.DeviceIP, "interface", doc.Interface,
		"driver", doc.Driver, "families", len(families), "failed", len(doc.Errors), "uri", obj.URI)
	return &SnapshotResult{Snapshot: row, Object: obj, Document: doc}, nil
}

// List 查询历史快照
func (s *SnapshotService) List(deviceIP, iface string, limit int) ([]model.Snapshot, error) {
	return database.ListSnapshots(deviceIP, iface, limit)
}

func familyList(fs []ethtool.Family) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

func joinErrors(m map[string]string) string {
	keys := sortedKeys(m)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, "; ")
}
