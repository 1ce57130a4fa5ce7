package models

import (
	"time"
)

// OperationLog 操作审计日志表
type OperationLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Operation    string    `gorm:"type:varchar(50);index;not null" json:"operation"` // ban/unban/mute/unmute/warn/unwarn
	GuildID      string    `gorm:"type:varchar(32);index;not null" json:"guild_id"`
	TargetUserID string    `gorm:"type:varchar(32);index;not null" json:"target_user_id"`
	IssuerKind   string    `gorm:"type:varchar(16)" json:"issuer_kind"`
	IssuerID     string    `gorm:"type:varchar(32)" json:"issuer_id"`
	IssuerLabel  string    `gorm:"type:varchar(255)" json:"issuer_label"`
	Reason       string    `gorm:"type:text" json:"reason"`
	Duration     string    `gorm:"type:varchar(16)" json:"duration"`
	Success      int8      `gorm:"default:1" json:"success"` // 1=成功，0=失败
	ErrorMsg     string    `gorm:"type:text" json:"error_msg"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (OperationLog) TableName() string {
	return "operation_logs"
}

// 操作类型
const (
	OpBan      = "ban"
	OpUnban    = "unban"
	OpMute     = "mute"
	OpUnmute   = "unmute"
	OpWarn     = "warn"
	OpUnwarn   = "unwarn"
	OpSlowmode = "slowmode"
)
