package models

import (
	"time"
)

// GuildPolicy 服务器策略表（policy 数据集）
// Bypass 列表以 JSON 文本存储；列内容损坏时按空列表降级处理，不阻塞请求。
type GuildPolicy struct {
	GuildID        string    `gorm:"primaryKey;type:varchar(32)" json:"guild_id"`
	LogChannelID   string    `gorm:"type:varchar(32)" json:"log_channel_id"`
	MutedRoleID    string    `gorm:"type:varchar(32)" json:"muted_role_id"`
	BypassUsers    string    `gorm:"type:text" json:"bypass_users"`    // JSON 数组
	BypassRoles    string    `gorm:"type:text" json:"bypass_roles"`    // JSON 数组
	BypassChannels string    `gorm:"type:text" json:"bypass_channels"` // JSON 数组
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (GuildPolicy) TableName() string {
	return "guild_policies"
}

// BypassKind Bypass 对象类型
type BypassKind string

const (
	BypassUser    BypassKind = "user"
	BypassRole    BypassKind = "role"
	BypassChannel BypassKind = "channel"
)

// ValidBypassKind 检查 Bypass 类型是否合法
func ValidBypassKind(kind string) bool {
	switch BypassKind(kind) {
	case BypassUser, BypassRole, BypassChannel:
		return true
	}
	return false
}
