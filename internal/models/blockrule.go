package models

import (
	"time"
)

// BlockRuleKind 封禁规则类型
type BlockRuleKind string

const (
	BlockWord       BlockRuleKind = "word"       // 违禁词
	BlockLink       BlockRuleKind = "link"       // 封禁链接
	BlockScamDomain BlockRuleKind = "scamdomain" // 诈骗域名
)

// BlockRuleAction 命中后的处置动作
type BlockRuleAction string

const (
	ActionWarn BlockRuleAction = "warn"
	ActionMute BlockRuleAction = "mute"
	ActionBan  BlockRuleAction = "ban"
)

// BlockRule 封禁规则表（blocklist 数据集）
// 规则在消息处理期间只读；匹配按插入顺序（ID 升序）取第一条命中。
type BlockRule struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      BlockRuleKind   `gorm:"type:varchar(16);index;not null" json:"kind"`
	Pattern   string          `gorm:"type:varchar(255);not null" json:"pattern"`
	Action    BlockRuleAction `gorm:"type:varchar(8);default:'warn'" json:"action"`
	Duration  string          `gorm:"type:varchar(16)" json:"duration"` // 可选时长，空为该动作的默认
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (BlockRule) TableName() string {
	return "block_rules"
}
