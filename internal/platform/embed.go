package platform

import (
	"fmt"
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/bwmarrin/discordgo"
)

// 各动作的展示颜色
const (
	colorRed     = 0xED4245
	colorDarkRed = 0x992D22
	colorOrange  = 0xE67E22
	colorGold    = 0xF1C40F
	colorGreen   = 0x57F287
	colorBlue    = 0x3498DB
	colorPurple  = 0x9B59B6
)

var actionColors = map[string]int{
	"ban":    colorRed,
	"mute":   colorOrange,
	"warn":   colorGold,
	"unban":  colorGreen,
	"unmute": colorGreen,
	"unwarn": colorGreen,
}

var actionNames = map[string]string{
	"ban":    "Ban",
	"mute":   "Mute",
	"warn":   "Warn",
	"unban":  "UnBan",
	"unmute": "UnMute",
	"unwarn": "UnWarn",
}

// renderEmbed 将平台无关的事件渲染为 Discord embed
func renderEmbed(event LogEvent) *discordgo.MessageEmbed {
	switch event.Kind {
	case EventWarning:
		return warningEmbed(event)
	case EventSpam:
		return spamEmbed(event)
	case EventScam:
		return scamEmbed(event)
	case EventConfig:
		return configEmbed(event)
	default:
		return moderationEmbed(event)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func issuerValue(event LogEvent) string {
	if event.Issuer.IsAuto() {
		return event.Issuer.Label
	}
	return fmt.Sprintf("<@%s>", event.Issuer.ID)
}

func reasonValue(reason string) string {
	if reason == "" {
		return "Không có lý do"
	}
	return reason
}

// moderationEmbed 执法动作（ban/mute/unban/unmute）
func moderationEmbed(event LogEvent) *discordgo.MessageEmbed {
	color, ok := actionColors[event.Action]
	if !ok {
		color = colorBlue
	}

	prefix := "🔨 "
	if event.Auto {
		prefix = "🤖 Auto "
	}

	embed := &discordgo.MessageEmbed{
		Title:     prefix + actionNames[event.Action],
		Color:     color,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Người dùng", Value: fmt.Sprintf("<@%s>\nID: %s", event.UserID, event.UserID), Inline: true},
			{Name: "🛡️ Người thực hiện", Value: issuerValue(event), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "User ID: " + event.UserID},
	}

	if event.Action == "ban" || event.Action == "mute" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "⏱️ Thời hạn", Value: utils.FormatDuration(event.Duration), Inline: true,
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "📝 Lý do", Value: reasonValue(event.Reason), Inline: false,
	})

	return embed
}

// warningConsequences 各警告等级的后果文案
var warningConsequences = map[int]string{
	1: "Cảnh cáo lần 1 - Không có hình phạt",
	2: "Cảnh cáo lần 2 - Tự động mute 10 phút",
	3: "Cảnh cáo lần 3 - Tự động ban 1 ngày",
}

// warningEmbed 警告等级事件
func warningEmbed(event LogEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "⚠️ Warn",
		Color:     colorGold,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Người dùng", Value: fmt.Sprintf("<@%s>", event.UserID), Inline: true},
			{Name: "📊 Mức cảnh cáo", Value: fmt.Sprintf("%d/3", event.Level), Inline: true},
			{Name: "📈 Tổng cảnh cáo", Value: fmt.Sprintf("%d", event.TotalWarns), Inline: true},
			{Name: "⚡ Hậu quả", Value: warningConsequences[event.Level], Inline: false},
			{Name: "📝 Lý do", Value: reasonValue(event.Reason), Inline: false},
			{Name: "🛡️ Người thực hiện", Value: issuerValue(event), Inline: true},
		},
	}
}

// spamEmbed 刷屏检测事件
func spamEmbed(event LogEvent) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "👤 Người dùng", Value: fmt.Sprintf("<@%s>", event.UserID), Inline: true},
		{Name: "📛 Loại spam", Value: event.SpamType, Inline: true},
		{Name: "⚡ Hành động", Value: event.Reason, Inline: true},
	}
	if event.Details != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "📋 Chi tiết", Value: event.Details, Inline: false,
		})
	}
	return &discordgo.MessageEmbed{
		Title:     "🚫 Phát Hiện Spam",
		Color:     colorPurple,
		Timestamp: timestamp(),
		Fields:    fields,
	}
}

// scamEmbed 诈骗/令牌检测事件。
// 令牌场景 Content 为空：消息内容绝不能进入日志。
func scamEmbed(event LogEvent) *discordgo.MessageEmbed {
	content := event.Content
	if content == "" {
		content = "[Token detected - content hidden for security]"
	}
	if len([]rune(content)) > 500 {
		content = string([]rune(content)[:500]) + "..."
	}

	return &discordgo.MessageEmbed{
		Title:     "🔴 Phát Hiện Scam/Token Logger",
		Color:     colorDarkRed,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Người dùng", Value: fmt.Sprintf("<@%s> (ID: %s)", event.UserID, event.UserID), Inline: false},
			{Name: "📜 Nội dung", Value: fmt.Sprintf("```%s```", content), Inline: false},
			{Name: "⚡ Hành động", Value: event.Reason, Inline: false},
		},
	}
}

// configEmbed 配置变更事件
func configEmbed(event LogEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "⚙️ Cập Nhật Cấu Hình",
		Color:     colorBlue,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📝 Thiết lập", Value: event.Action, Inline: true},
			{Name: "📌 Giá trị", Value: event.Details, Inline: true},
			{Name: "👤 Người thực hiện", Value: issuerValue(event), Inline: true},
		},
	}
}
