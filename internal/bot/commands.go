package bot

import (
	"fmt"
	"strings"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "vrban",
		Description: "Cấm người dùng khỏi máy chủ",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Người dùng cần cấm", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Thời hạn (vd: 7d, 1mo; bỏ trống = vĩnh viễn)"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Lý do"},
		},
	},
	{
		Name:        "vrunban",
		Description: "Gỡ cấm người dùng",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "user_id", Description: "ID người dùng", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Lý do"},
		},
	},
	{
		Name:        "vrmute",
		Description: "Mute người dùng",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Người dùng cần mute", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Thời hạn (vd: 10m, 1h; bỏ trống = vĩnh viễn)"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Lý do"},
		},
	},
	{
		Name:        "vrunmute",
		Description: "Gỡ mute người dùng",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Người dùng cần gỡ mute", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Lý do"},
		},
	},
	{
		Name:        "vrwarn",
		Description: "Cảnh cáo người dùng",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Người dùng cần cảnh cáo", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Lý do", Required: true},
		},
	},
	{
		Name:        "vrunwarn",
		Description: "Gỡ cảnh cáo gần nhất của người dùng",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Người dùng cần gỡ cảnh cáo", Required: true},
		},
	},
	{
		Name:        "vrbypass",
		Description: "Thêm đối tượng vào danh sách miễn kiểm duyệt",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "kind", Description: "Loại đối tượng", Required: true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "user", Value: string(models.BypassUser)},
					{Name: "role", Value: string(models.BypassRole)},
					{Name: "channel", Value: string(models.BypassChannel)},
				}},
			{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "ID đối tượng", Required: true},
		},
	},
	{
		Name:        "vrunbypass",
		Description: "Xóa đối tượng khỏi danh sách miễn kiểm duyệt",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "kind", Description: "Loại đối tượng", Required: true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "user", Value: string(models.BypassUser)},
					{Name: "role", Value: string(models.BypassRole)},
					{Name: "channel", Value: string(models.BypassChannel)},
				}},
			{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "ID đối tượng", Required: true},
		},
	},
	{
		Name:        "vrsetlog",
		Description: "Đặt kênh nhận log kiểm duyệt",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Kênh log", Required: true},
		},
	},
	{
		Name:        "vrsetmutedrole",
		Description: "Đặt role dùng khi mute",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role mute", Required: true},
		},
	},
	{
		Name:        "vrstatus",
		Description: "Xem trạng thái kiểm duyệt (bỏ trống user để xem toàn máy chủ)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Người dùng"},
		},
	},
	{
		Name:        "vrhelp",
		Description: "Danh sách lệnh của bot",
	},
	{
		Name:        "vrop",
		Description: "Quản lý operator của bot (chỉ tác giả)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "action", Description: "Thao tác", Required: true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "add", Value: "add"},
					{Name: "remove", Value: "remove"},
					{Name: "list", Value: "list"},
				}},
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Người dùng"},
		},
	},
}

// registerCommands 向Discord注册全局斜杠命令
func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	for _, def := range commandDefinitions {
		cmd, err := b.session.ApplicationCommandCreate(appID, "", def)
		if err != nil {
			return fmt.Errorf("注册命令 %s 失败: %w", def.Name, err)
		}
		b.registered = append(b.registered, cmd)
	}
	logrus.Infof("📋 已注册 %d 个斜杠命令", len(b.registered))
	return nil
}

// onInteraction 斜杠命令分发
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.Member == nil {
		return
	}

	data := i.ApplicationCommandData()

	if !b.isAuthorized(i) {
		b.reply(i, "❌ Bạn không có quyền sử dụng lệnh này.")
		return
	}

	switch data.Name {
	case "vrban":
		b.handleBan(i, data)
	case "vrunban":
		b.handleUnban(i, data)
	case "vrmute":
		b.handleMute(i, data)
	case "vrunmute":
		b.handleUnmute(i, data)
	case "vrwarn":
		b.handleWarn(i, data)
	case "vrunwarn":
		b.handleUnwarn(i, data)
	case "vrbypass":
		b.handleBypass(i, data, true)
	case "vrunbypass":
		b.handleBypass(i, data, false)
	case "vrsetlog":
		b.handleSetLog(i, data)
	case "vrsetmutedrole":
		b.handleSetMutedRole(i, data)
	case "vrstatus":
		b.handleStatus(i, data)
	case "vrhelp":
		b.handleHelp(i)
	case "vrop":
		b.handleOp(i, data)
	}
}

func (b *Bot) handleBan(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	target := optionUser(b.session, data, "user")
	if target == nil {
		b.reply(i, "❌ Không tìm thấy người dùng.")
		return
	}
	duration := optionString(data, "duration")
	reason := optionString(data, "reason")
	if reason == "" {
		reason = "Không có lý do"
	}

	if err := b.engine.Ban(i.GuildID, target.ID, i.Member.User.ID, duration, reason); err != nil {
		b.replyError(i, err)
		return
	}
	b.reply(i, fmt.Sprintf("🔨 Đã cấm **%s** | Thời hạn: %s | Lý do: %s",
		target.Username, utils.FormatDuration(duration), reason))
}

func (b *Bot) handleUnban(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	userID := optionString(data, "user_id")
	reason := optionString(data, "reason")
	if reason == "" {
		reason = "Được gỡ cấm bởi operator"
	}

	if err := b.engine.Unban(i.GuildID, userID, i.Member.User.ID, reason); err != nil {
		b.replyError(i, err)
		return
	}
	b.reply(i, fmt.Sprintf("🔓 Đã gỡ cấm người dùng `%s`.", userID))
}

func (b *Bot) handleMute(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	target := optionUser(b.session, data, "user")
	if target == nil {
		b.reply(i, "❌ Không tìm thấy người dùng.")
		return
	}
	duration := optionString(data, "duration")
	reason := optionString(data, "reason")
	if reason == "" {
		reason = "Không có lý do"
	}

	if err := b.engine.Mute(i.GuildID, target.ID, i.Member.User.ID, duration, reason); err != nil {
		b.replyError(i, err)
		return
	}
	b.reply(i, fmt.Sprintf("🔇 Đã mute **%s** | Thời hạn: %s | Lý do: %s",
		target.Username, utils.FormatDuration(duration), reason))
}

func (b *Bot) handleUnmute(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	target := optionUser(b.session, data, "user")
	if target == nil {
		b.reply(i, "❌ Không tìm thấy người dùng.")
		return
	}
	reason := optionString(data, "reason")
	if reason == "" {
		reason = "Được gỡ mute bởi operator"
	}

	if err := b.engine.Unmute(i.GuildID, target.ID, i.Member.User.ID, reason); err != nil {
		b.replyError(i, err)
		return
	}
	b.reply(i, fmt.Sprintf("🔊 Đã gỡ mute **%s**.", target.Username))
}

func (b *Bot) handleWarn(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	target := optionUser(b.session, data, "user")
	if target == nil {
		b.reply(i, "❌ Không tìm thấy người dùng.")
		return
	}
	reason := optionString(data, "reason")

	result, err := b.engine.IssueWarning(i.GuildID, target.ID, i.Member.User.ID, reason)
	if err != nil {
		b.replyError(i, err)
		return
	}

	msg := fmt.Sprintf("⚠️ Đã cảnh cáo **%s** (lần %d/3, tổng %d) | Lý do: %s",
		target.Username, result.Level, result.Total, reason)
	if result.Sanctioned {
		if result.Sanction == string(models.SanctionBan) {
			msg += "\n🔨 Đạt mức 3: đã tự động cấm 1 ngày."
		} else {
			msg += "\n🔇 Đạt mức 2: đã tự động mute 10 phút."
		}
	}
	b.reply(i, msg)
}

func (b *Bot) handleUnwarn(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	target := optionUser(b.session, data, "user")
	if target == nil {
		b.reply(i, "❌ Không tìm thấy người dùng.")
		return
	}

	remaining, err := b.engine.RemoveWarning(i.GuildID, target.ID, i.Member.User.ID)
	if err != nil {
		if apperr.IsNotFound(err) {
			b.reply(i, fmt.Sprintf("ℹ️ **%s** không có cảnh cáo nào.", target.Username))
			return
		}
		b.replyError(i, err)
		return
	}
	b.reply(i, fmt.Sprintf("✅ Đã gỡ cảnh cáo gần nhất của **%s**. Còn lại: %d.", target.Username, remaining))
}

func (b *Bot) handleBypass(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, add bool) {
	kind := optionString(data, "kind")
	subjectID := optionString(data, "id")

	var err error
	if add {
		err = b.engine.SetBypass(i.GuildID, kind, subjectID)
	} else {
		err = b.engine.ClearBypass(i.GuildID, kind, subjectID)
	}
	if err != nil {
		b.replyError(i, err)
		return
	}

	if add {
		b.reply(i, fmt.Sprintf("✅ Đã thêm %s `%s` vào danh sách miễn kiểm duyệt.", kind, subjectID))
	} else {
		b.reply(i, fmt.Sprintf("✅ Đã xóa %s `%s` khỏi danh sách miễn kiểm duyệt.", kind, subjectID))
	}
}

func (b *Bot) handleSetLog(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	channel := optionChannel(data, "channel")
	if channel == "" {
		b.reply(i, "❌ Kênh không hợp lệ.")
		return
	}
	if err := b.engine.SetLogChannel(i.GuildID, channel); err != nil {
		b.replyError(i, err)
		return
	}
	b.reply(i, fmt.Sprintf("✅ Đã đặt kênh log: <#%s>", channel))
}

func (b *Bot) handleSetMutedRole(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	role := optionRole(data, "role")
	if role == "" {
		b.reply(i, "❌ Role không hợp lệ.")
		return
	}
	if err := b.engine.SetMutedRole(i.GuildID, role); err != nil {
		b.replyError(i, err)
		return
	}
	b.reply(i, fmt.Sprintf("✅ Đã đặt role mute: <@&%s>", role))
}

func (b *Bot) handleStatus(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	target := optionUser(b.session, data, "user")
	if target == nil {
		b.handleGuildStatus(i)
		return
	}

	total, err := b.engine.WarningCount(i.GuildID, target.ID)
	if err != nil {
		b.replyError(i, err)
		return
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("📋 Trạng thái kiểm duyệt của **%s**", target.Username))
	lines = append(lines, fmt.Sprintf("• Cảnh cáo: %d (mức hiện tại: %d/3)", total, warnLevel(total)))

	if mute, err := b.sanctions.GetActive(i.GuildID, target.ID, models.SanctionMute); err == nil && mute != nil {
		if mute.ExpireAt != nil {
			lines = append(lines, fmt.Sprintf("• 🔇 Đang bị mute, còn lại: %s (đến %s)",
				utils.FormatRemainingTime(*mute.ExpireAt), utils.FormatTimestamp(*mute.ExpireAt)))
		} else {
			lines = append(lines, "• 🔇 Đang bị mute vĩnh viễn")
		}
	}
	if ban, err := b.sanctions.GetActive(i.GuildID, target.ID, models.SanctionBan); err == nil && ban != nil {
		if ban.ExpireAt != nil {
			lines = append(lines, fmt.Sprintf("• 🔨 Đang bị cấm, còn lại: %s (đến %s)",
				utils.FormatRemainingTime(*ban.ExpireAt), utils.FormatTimestamp(*ban.ExpireAt)))
		} else {
			lines = append(lines, "• 🔨 Đang bị cấm vĩnh viễn")
		}
	}

	b.reply(i, strings.Join(lines, "\n"))
}

func (b *Bot) handleGuildStatus(i *discordgo.InteractionCreate) {
	st, err := b.engine.Status(i.GuildID)
	if err != nil {
		b.replyError(i, err)
		return
	}

	logChannel := "chưa đặt"
	if st.LogChannelID != "" {
		logChannel = fmt.Sprintf("<#%s>", st.LogChannelID)
	}
	mutedRole := "chưa đặt"
	if st.MutedRoleID != "" {
		mutedRole = fmt.Sprintf("<@&%s>", st.MutedRoleID)
	}

	b.reply(i, strings.Join([]string{
		"📋 **Trạng thái kiểm duyệt máy chủ**",
		fmt.Sprintf("• Kênh log: %s", logChannel),
		fmt.Sprintf("• Role mute: %s", mutedRole),
		fmt.Sprintf("• Miễn kiểm duyệt: %d người dùng, %d role, %d kênh",
			st.BypassUsers, st.BypassRoles, st.BypassChannels),
		fmt.Sprintf("• Tổng cảnh cáo đã ghi: %d", st.TotalWarnings),
	}, "\n"))
}

func (b *Bot) handleHelp(i *discordgo.InteractionCreate) {
	help := strings.Join([]string{
		"📖 **Danh sách lệnh**",
		"`/vrban` `/vrunban` — cấm / gỡ cấm",
		"`/vrmute` `/vrunmute` — mute / gỡ mute",
		"`/vrwarn` `/vrunwarn` — cảnh cáo / gỡ cảnh cáo (3 mức: nhắc nhở → mute 10m → cấm 1d)",
		"`/vrbypass` `/vrunbypass` — quản lý miễn kiểm duyệt",
		"`/vrsetlog` `/vrsetmutedrole` — cấu hình máy chủ",
		"`/vrstatus` — trạng thái kiểm duyệt của người dùng",
		"`/vrop` — quản lý operator (chỉ tác giả)",
		"Thời hạn: `30s` `10m` `1h` `7d` `2w` `1mo`, bỏ trống = vĩnh viễn.",
	}, "\n")
	b.reply(i, help)
}

func (b *Bot) handleOp(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !b.cfg.Discord.IsAuthor(i.Member.User.ID) {
		b.reply(i, "❌ Chỉ tác giả bot mới được quản lý operator.")
		return
	}

	action := optionString(data, "action")
	switch action {
	case "add":
		target := optionUser(b.session, data, "user")
		if target == nil {
			b.reply(i, "❌ Cần chỉ định người dùng.")
			return
		}
		if err := b.operators.Add(target.ID, target.Username, i.Member.User.ID); err != nil {
			b.replyError(i, err)
			return
		}
		b.reply(i, fmt.Sprintf("✅ Đã thêm operator **%s**.", target.Username))
	case "remove":
		target := optionUser(b.session, data, "user")
		if target == nil {
			b.reply(i, "❌ Cần chỉ định người dùng.")
			return
		}
		if err := b.operators.Remove(target.ID); err != nil {
			b.replyError(i, err)
			return
		}
		b.reply(i, fmt.Sprintf("✅ Đã xóa operator **%s**.", target.Username))
	case "list":
		ops, err := b.operators.List()
		if err != nil {
			b.replyError(i, err)
			return
		}
		if len(ops) == 0 {
			b.reply(i, "ℹ️ Chưa có operator nào.")
			return
		}
		var lines []string
		lines = append(lines, "📋 **Danh sách operator**")
		for _, op := range ops {
			lines = append(lines, fmt.Sprintf("• %s (`%s`)", op.UserName, op.UserID))
		}
		b.reply(i, strings.Join(lines, "\n"))
	}
}

// reply 发送仅发起者可见的回复
func (b *Bot) reply(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logrus.Warnf("⚠️ 命令回复失败: %v", err)
	}
}

// replyError 将内部错误转换为用户可读的回复
func (b *Bot) replyError(i *discordgo.InteractionCreate, err error) {
	switch {
	case apperr.IsInvalidInput(err):
		b.reply(i, "❌ Thời hạn không hợp lệ. Định dạng: `30s` `10m` `1h` `7d` `2w` `1mo`.")
	case apperr.IsPermissionDenied(err):
		b.reply(i, "❌ Bạn không thể thao tác với người có role cao hơn hoặc ngang bạn.")
	case apperr.IsNotFound(err):
		b.reply(i, "ℹ️ Không tìm thấy bản ghi tương ứng.")
	default:
		logrus.Errorf("❌ 命令执行失败: %v", err)
		b.reply(i, "❌ Đã xảy ra lỗi khi thực hiện lệnh.")
	}
}

func warnLevel(total int) int {
	if total == 0 {
		return 0
	}
	return ((total - 1) % 3) + 1
}

// optionString 取字符串参数，缺省返回空串
func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// optionUser 取用户参数
func optionUser(s *discordgo.Session, data discordgo.ApplicationCommandInteractionData, name string) *discordgo.User {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(s)
		}
	}
	return nil
}

// optionChannel 取频道参数ID
func optionChannel(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionChannel {
			return opt.Value.(string)
		}
	}
	return ""
}

// optionRole 取角色参数ID
func optionRole(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionRole {
			return opt.Value.(string)
		}
	}
	return ""
}
