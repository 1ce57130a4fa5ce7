package bot

import (
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/engine"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// onMessageCreate 入站消息处理
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// 忽略机器人与私信
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	isAdmin := false
	if perms, err := s.State.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
		isAdmin = perms&discordgo.PermissionAdministrator != 0
	}

	msg := inboundMessage(m, isAdmin)

	if _, err := b.engine.OnMessage(msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"服务器ID": m.GuildID,
			"用户ID":  m.Author.ID,
			"错误信息":  err.Error(),
		}).Error("❌ 消息处理失败")
	}
}

// inboundMessage 将平台消息转换为处理管线的输入
func inboundMessage(m *discordgo.MessageCreate, isAdmin bool) engine.Message {
	var roleIDs []string
	if m.Member != nil {
		roleIDs = m.Member.Roles
	}
	return engine.Message{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		UserID:    m.Author.ID,
		UserName:  m.Author.Username,
		Content:   m.Content,
		// 用户提及与角色提及合并计数
		MentionCount: len(m.Mentions) + len(m.MentionRoles),
		RoleIDs:      roleIDs,
		IsAdmin:      isAdmin,
	}
}
