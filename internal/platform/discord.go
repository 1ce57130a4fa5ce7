package platform

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// DiscordGateway Discord 平台网关实现
type DiscordGateway struct {
	session *discordgo.Session
}

// NewDiscordGateway 创建 Discord 网关
func NewDiscordGateway(session *discordgo.Session) *DiscordGateway {
	return &DiscordGateway{session: session}
}

// mapError 将平台错误归类到统一错误分类
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", apperr.ErrPermissionDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %v", apperr.ErrTransient, err)
		}
	}

	var rateLimit *discordgo.RateLimitError
	if errors.As(err, &rateLimit) {
		return fmt.Errorf("%w: %v", apperr.ErrTransient, err)
	}

	return err
}

// DeleteMessage 删除一条消息
func (g *DiscordGateway) DeleteMessage(guildID, channelID, messageID string) error {
	return mapError(g.session.ChannelMessageDelete(channelID, messageID))
}

// ApplyMutedRole 给用户添加禁言角色
func (g *DiscordGateway) ApplyMutedRole(guildID, userID, roleID, reason string) error {
	if roleID == "" {
		return nil
	}
	return mapError(g.session.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithAuditLogReason(reason)))
}

// RemoveMutedRole 移除用户的禁言角色
func (g *DiscordGateway) RemoveMutedRole(guildID, userID, roleID, reason string) error {
	if roleID == "" {
		return nil
	}
	return mapError(g.session.GuildMemberRoleRemove(guildID, userID, roleID,
		discordgo.WithAuditLogReason(reason)))
}

// Timeout 设置用户的平台禁言截止时间
func (g *DiscordGateway) Timeout(guildID, userID string, until time.Time, reason string) error {
	return mapError(g.session.GuildMemberTimeout(guildID, userID, &until,
		discordgo.WithAuditLogReason(reason)))
}

// ClearTimeout 清除用户的平台禁言
func (g *DiscordGateway) ClearTimeout(guildID, userID, reason string) error {
	return mapError(g.session.GuildMemberTimeout(guildID, userID, nil,
		discordgo.WithAuditLogReason(reason)))
}

// Ban 封禁用户（附带清除最近1天消息）
func (g *DiscordGateway) Ban(guildID, userID, reason string) error {
	return mapError(g.session.GuildBanCreateWithReason(guildID, userID, reason, 1))
}

// Unban 解封用户
func (g *DiscordGateway) Unban(guildID, userID, reason string) error {
	return mapError(g.session.GuildBanDelete(guildID, userID,
		discordgo.WithAuditLogReason(reason)))
}

// HasHigherRole 检查 actor 的最高角色是否严格高于 target
func (g *DiscordGateway) HasHigherRole(guildID, actorID, targetID string) (bool, error) {
	actorRank, err := g.topRolePosition(guildID, actorID)
	if err != nil {
		return false, err
	}
	targetRank, err := g.topRolePosition(guildID, targetID)
	if err != nil {
		return false, err
	}
	return actorRank > targetRank, nil
}

// topRolePosition 获取成员最高角色的排位
func (g *DiscordGateway) topRolePosition(guildID, userID string) (int, error) {
	member, err := g.session.GuildMember(guildID, userID)
	if err != nil {
		return 0, mapError(err)
	}

	roles, err := g.session.GuildRoles(guildID)
	if err != nil {
		return 0, mapError(err)
	}

	positions := make(map[string]int, len(roles))
	for _, role := range roles {
		positions[role.ID] = role.Position
	}

	top := 0
	for _, roleID := range member.Roles {
		if pos, ok := positions[roleID]; ok && pos > top {
			top = pos
		}
	}
	return top, nil
}

// TextChannels 返回服务器的文本频道ID列表
func (g *DiscordGateway) TextChannels(guildID string) ([]string, error) {
	channels, err := g.session.GuildChannels(guildID)
	if err != nil {
		return nil, mapError(err)
	}

	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			ids = append(ids, ch.ID)
		}
	}
	return ids, nil
}

// RecentMessageIDs 返回频道内指定用户最近的消息ID
func (g *DiscordGateway) RecentMessageIDs(channelID, userID string, limit int) ([]string, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	messages, err := g.session.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return nil, mapError(err)
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Author != nil && msg.Author.ID == userID {
			ids = append(ids, msg.ID)
		}
	}
	return ids, nil
}

// DeleteChannelMessage 删除频道内的一条消息
func (g *DiscordGateway) DeleteChannelMessage(channelID, messageID string) error {
	return mapError(g.session.ChannelMessageDelete(channelID, messageID))
}

// SendLog 发送事件到日志频道
func (g *DiscordGateway) SendLog(channelID string, event LogEvent) error {
	if channelID == "" {
		return nil
	}

	embed := renderEmbed(event)
	_, err := g.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		// 日志发送失败不阻塞执法流程，只记录
		logrus.WithFields(logrus.Fields{
			"频道ID": channelID,
			"错误信息": err.Error(),
		}).Warn("⚠️ 日志频道发送失败")
	}
	return nil
}

// SendDM 给用户发送私信提醒（尽力而为，拒收直接吞掉）
func (g *DiscordGateway) SendDM(userID, title, body string) error {
	channel, err := g.session.UserChannelCreate(userID)
	if err != nil {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: body,
		Color:       colorOrange,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	_, _ = g.session.ChannelMessageSendEmbed(channel.ID, embed)
	return nil
}
