package models

import (
	"time"
)

// SanctionKind 制裁类型
type SanctionKind string

const (
	SanctionMute SanctionKind = "mute"
	SanctionBan  SanctionKind = "ban"
)

// Sanction 制裁记录表（sanctions 数据集）
// 同一 (服务器,用户,类型) 同时只有一条生效记录；新制裁覆盖旧记录（后写胜出）。
type Sanction struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	GuildID     string       `gorm:"type:varchar(32);index:idx_sanction_lookup;not null" json:"guild_id"`
	UserID      string       `gorm:"type:varchar(32);index:idx_sanction_lookup;not null" json:"user_id"`
	Kind        SanctionKind `gorm:"type:varchar(8);index:idx_sanction_lookup;not null" json:"kind"`
	IssuerKind  string       `gorm:"type:varchar(16);not null" json:"issuer_kind"`
	IssuerID    string       `gorm:"type:varchar(32)" json:"issuer_id"`
	IssuerLabel string       `gorm:"type:varchar(255)" json:"issuer_label"`
	Reason      string       `gorm:"type:text" json:"reason"`
	Duration    string       `gorm:"type:varchar(16)" json:"duration"` // 时长原文（如 "10m"），空为永久
	ExpireAt    *time.Time   `gorm:"index" json:"expire_at"`           // NULL 表示永久
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	Status      int8         `gorm:"default:1;index" json:"status"` // 1=生效中，0=已解除
	LiftReason  string       `gorm:"type:text" json:"lift_reason"`
	LiftAt      *time.Time   `json:"lift_at"`
	LiftBy      string       `gorm:"type:varchar(255)" json:"lift_by"`
}

// TableName 指定表名
func (Sanction) TableName() string {
	return "sanctions"
}

// Issuer 返回记录的操作来源
func (s *Sanction) Issuer() Issuer {
	return Issuer{Kind: s.IssuerKind, ID: s.IssuerID, Label: s.IssuerLabel}
}

// IsActive 是否生效中
func (s *Sanction) IsActive() bool {
	if s.Status != 1 {
		return false
	}
	if s.ExpireAt != nil && time.Now().After(*s.ExpireAt) {
		return false
	}
	return true
}

// IsExpired 是否已过期
func (s *Sanction) IsExpired() bool {
	if s.ExpireAt == nil {
		return false
	}
	return time.Now().After(*s.ExpireAt)
}
