package bot

import (
	"fmt"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/config"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/engine"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Bot Discord机器人封装
type Bot struct {
	cfg       *config.Config
	session   *discordgo.Session
	engine    *engine.Engine
	operators *service.OperatorService
	sanctions *service.SanctionService

	registered []*discordgo.ApplicationCommand
}

// New 创建机器人实例（不建立连接）
func New(cfg *config.Config, session *discordgo.Session, eng *engine.Engine,
	operators *service.OperatorService, sanctions *service.SanctionService) *Bot {

	return &Bot{
		cfg:       cfg,
		session:   session,
		engine:    eng,
		operators: operators,
		sanctions: sanctions,
	}
}

// NewSession 按所需意图创建 Discord 会话
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("创建Discord会话失败: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent
	session.StateEnabled = true
	return session, nil
}

// Start 建立网关连接并注册命令
func (b *Bot) Start() error {
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("连接Discord网关失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"机器人": b.session.State.User.Username,
	}).Info("🤖 Discord机器人已上线")

	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("注册斜杠命令失败: %w", err)
	}
	return nil
}

// Stop 关闭网关连接
func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		logrus.Errorf("❌ 关闭Discord会话失败: %v", err)
	} else {
		logrus.Info("🤖 Discord机器人已下线")
	}
}

// isAuthorized 命令权限检查：作者 / 操作员 / 服务器管理员
func (b *Bot) isAuthorized(i *discordgo.InteractionCreate) bool {
	userID := i.Member.User.ID
	if b.cfg.Discord.IsAuthor(userID) {
		return true
	}
	if ok, err := b.operators.IsAuthorized(userID); err == nil && ok {
		return true
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}
