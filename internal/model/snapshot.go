package model

import (
	"time"
)

// Snapshot 一次网卡配置快照
type Snapshot struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	DeviceIP   string    `json:"device_ip" gorm:"type:varchar(64);not null;index:idx_snapshot_target"`
	Interface  string    `json:"interface" gorm:"type:varchar(64);not null;index:idx_snapshot_target"`
	Namespace  string    `json:"namespace" gorm:"type:varchar(64)"`
	Driver     string    `json:"driver" gorm:"type:varchar(32)"`
	Families   string    `json:"families" gorm:"type:text"`
	Failed     string    `json:"failed" gorm:"type:text"`
	Status     string    `json:"status" gorm:"type:varchar(16);not null;default:'success'"`
	Backend    string    `json:"backend" gorm:"type:varchar(16)"`
	ObjectPath string    `json:"object_path" gorm:"type:text"`
	Duration   int64     `json:"duration"` // 采集时长，毫秒
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName 表名
func (Snapshot) TableName() string {
	return "snapshots"
}

// SnapshotStatus 快照状态
const (
	SnapshotStatusSuccess = "success"
	SnapshotStatusPartial = "partial"
	SnapshotStatusFailed  = "failed"
)
