package platform

import (
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
)

// LogEvent 发往日志频道的事件（平台无关），由适配层渲染为具体展示格式。
type LogEvent struct {
	Kind       string // moderation/warning/spam/scam/config
	Action     string // ban/mute/warn/unban/unmute/unwarn/slowmode
	GuildID    string
	UserID     string
	Issuer     models.Issuer
	Reason     string
	Duration   string // 时长原文（如 "10m"），空为永久
	Auto       bool
	Level      int    // 警告等级（Kind=warning 时有效）
	TotalWarns int    // 累计警告数（Kind=warning 时有效）
	SpamType   string // 违规类型文案（Kind=spam 时有效）
	Details    string // 检测细节（Kind=spam 时有效）
	Content    string // 涉事内容（Kind=scam 时有效；令牌场景必须为空以保安全）
}

// 事件类型
const (
	EventModeration = "moderation"
	EventWarning    = "warning"
	EventSpam       = "spam"
	EventScam       = "scam"
	EventConfig     = "config"
)

// Gateway 聊天平台网关。
// 核心组件只依赖该接口，通过构造函数注入，不做任何按名称的运行时查找。
type Gateway interface {
	// DeleteMessage 删除一条消息
	DeleteMessage(guildID, channelID, messageID string) error

	// ApplyMutedRole 给用户添加禁言角色
	ApplyMutedRole(guildID, userID, roleID, reason string) error
	// RemoveMutedRole 移除用户的禁言角色
	RemoveMutedRole(guildID, userID, roleID, reason string) error

	// Timeout 设置用户的平台禁言截止时间
	Timeout(guildID, userID string, until time.Time, reason string) error
	// ClearTimeout 清除用户的平台禁言
	ClearTimeout(guildID, userID, reason string) error

	// Ban 封禁用户
	Ban(guildID, userID, reason string) error
	// Unban 解封用户
	Unban(guildID, userID, reason string) error

	// HasHigherRole 检查 actor 的最高角色是否严格高于 target
	HasHigherRole(guildID, actorID, targetID string) (bool, error)

	// TextChannels 返回服务器的文本频道ID列表
	TextChannels(guildID string) ([]string, error)
	// RecentMessageIDs 返回频道内指定用户最近的消息ID（回溯上限 limit 条）
	RecentMessageIDs(channelID, userID string, limit int) ([]string, error)
	// DeleteChannelMessage 删除频道内的一条消息（批量清理用）
	DeleteChannelMessage(channelID, messageID string) error

	// SendLog 发送事件到日志频道
	SendLog(channelID string, event LogEvent) error
	// SendDM 给用户发送私信提醒（尽力而为）
	SendDM(userID, title, body string) error
}
