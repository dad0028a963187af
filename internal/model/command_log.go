package model

import "time"

// CommandLog 单条 ethtool 命令的执行记录
type CommandLog struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	DeviceIP   string    `json:"device_ip" gorm:"type:varchar(64);not null;index"`
	Interface  string    `json:"interface" gorm:"type:varchar(64)"`
	Command    string    `json:"command" gorm:"type:text;not null"`
	ReturnCode int       `json:"return_code"`
	Stderr     string    `json:"stderr" gorm:"type:text"`
	ErrorMsg   string    `json:"error_msg" gorm:"type:text"`
	Duration   int64     `json:"duration"` // 毫秒
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (CommandLog) TableName() string { return "command_logs" }
