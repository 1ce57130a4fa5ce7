package engine

import (
	"fmt"
	"strings"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/classifier"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/escalation"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/executor"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/platform"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/service"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/tracker"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/sirupsen/logrus"
)

// 限速标记持续秒数
const rateLimitMarkSeconds = 60

// Outcome 一条消息经过处理管线后的结论
type Outcome int

const (
	OutcomeNone    Outcome = iota // 无违规
	OutcomeDeleted                // 仅删除消息
	OutcomeWarned                 // 删除并警告
	OutcomeMuted                  // 删除并禁言
	OutcomeBanned                 // 删除并封禁
)

// Message 待审查的一条消息
type Message struct {
	GuildID      string
	ChannelID    string
	MessageID    string
	UserID       string
	UserName     string
	Content      string
	MentionCount int
	RoleIDs      []string
	IsAdmin      bool
}

// Engine 审查引擎核心。
// 管线顺序固定：禁词 → 令牌/诈骗 → 禁链 → 刷屏检测。命中即短路。
type Engine struct {
	policy    *service.PolicyService
	blocklist *service.BlocklistService
	escalator *escalation.Escalator
	executor  *executor.Executor
	tracker   *tracker.Tracker
	gateway   platform.Gateway
}

// New 创建审查引擎
func New(policy *service.PolicyService, blocklist *service.BlocklistService,
	escalator *escalation.Escalator, exec *executor.Executor,
	trk *tracker.Tracker, gateway platform.Gateway) *Engine {

	return &Engine{
		policy:    policy,
		blocklist: blocklist,
		escalator: escalator,
		executor:  exec,
		tracker:   trk,
		gateway:   gateway,
	}
}

// OnMessage 处理一条入站消息。
// 豁免用户（管理员 / 白名单用户 / 白名单角色 / 白名单频道）直接放行。
func (e *Engine) OnMessage(msg Message) (Outcome, error) {
	policy, err := e.policy.Get(msg.GuildID)
	if err != nil {
		logrus.Errorf("❌ 读取服务器配置失败: %v", err)
		return OutcomeNone, err
	}
	if policy.IsBypassed(msg.UserID, msg.ChannelID, msg.RoleIDs, msg.IsAdmin) {
		return OutcomeNone, nil
	}

	// 1. 禁词
	if outcome, hit, err := e.checkBlockedWords(msg); hit {
		return outcome, err
	}

	// 2. 凭证令牌与诈骗内容
	if outcome, hit, err := e.checkScamContent(msg); hit {
		return outcome, err
	}

	// 3. 禁链
	if outcome, hit, err := e.checkBlockedLinks(msg); hit {
		return outcome, err
	}

	// 4. 刷屏检测
	return e.checkSpam(msg)
}

// checkBlockedWords 禁词检查。规则按插入顺序取第一个命中。
func (e *Engine) checkBlockedWords(msg Message) (Outcome, bool, error) {
	rules, err := e.blocklist.WordRules()
	if err != nil {
		logrus.Errorf("❌ 加载禁词规则失败: %v", err)
		return OutcomeNone, false, nil
	}

	rule := classifier.MatchBlockRule(msg.Content, rules)
	if rule == nil {
		return OutcomeNone, false, nil
	}

	e.deleteMessage(msg)
	reason := fmt.Sprintf("Sử dụng từ cấm: %s", rule.Pattern)

	switch rule.Action {
	case models.ActionMute:
		err := e.executor.Mute(msg.GuildID, msg.UserID, rule.Duration, reason, models.AutoIssuer())
		return OutcomeMuted, true, err
	case models.ActionBan:
		err := e.executor.Ban(msg.GuildID, msg.UserID, rule.Duration, reason, models.AutoIssuer())
		return OutcomeBanned, true, err
	default:
		outcome, err := e.autoWarn(msg, reason)
		return outcome, true, err
	}
}

// checkScamContent 凭证令牌与诈骗内容检查。
// 令牌场景的日志事件不携带消息内容。
func (e *Engine) checkScamContent(msg Message) (Outcome, bool, error) {
	if classifier.ContainsCredentialToken(msg.Content) {
		e.deleteMessage(msg)
		reason := "Gửi nội dung chứa Discord token - Nghi ngờ token logger"
		err := e.executor.Ban(msg.GuildID, msg.UserID, "", reason, models.AutoIssuer())
		e.executor.SendLogEvent(platform.LogEvent{
			Kind:    platform.EventScam,
			Action:  models.OpBan,
			GuildID: msg.GuildID,
			UserID:  msg.UserID,
			Issuer:  models.AutoIssuer(),
			Reason:  reason,
			Auto:    true,
			Content: "", // 令牌内容绝不外发
		})
		return OutcomeBanned, true, err
	}

	links := classifier.ExtractLinks(msg.Content)

	if len(links) > 0 {
		domains, err := e.blocklist.ScamDomains()
		if err != nil {
			logrus.Errorf("❌ 加载诈骗域名失败: %v", err)
		} else {
			for _, link := range links {
				if domain := classifier.MatchSubstring(link, domains); domain != "" {
					e.deleteMessage(msg)
					reason := fmt.Sprintf("Gửi link scam: %s", domain)
					err := e.executor.Ban(msg.GuildID, msg.UserID, "7d", reason, models.AutoIssuer())
					e.executor.SendLogEvent(platform.LogEvent{
						Kind:    platform.EventScam,
						Action:  models.OpBan,
						GuildID: msg.GuildID,
						UserID:  msg.UserID,
						Issuer:  models.AutoIssuer(),
						Reason:  reason,
						Auto:    true,
						Content: msg.Content,
					})
					return OutcomeBanned, true, err
				}
			}
		}
	}

	// 诈骗话术需同时携带链接才触发
	if len(links) > 0 && classifier.ContainsScamPhrase(msg.Content) {
		e.deleteMessage(msg)
		reason := "Nghi ngờ gửi nội dung lừa đảo"
		err := e.executor.Mute(msg.GuildID, msg.UserID, "1h", reason, models.AutoIssuer())
		e.executor.SendLogEvent(platform.LogEvent{
			Kind:    platform.EventScam,
			Action:  models.OpMute,
			GuildID: msg.GuildID,
			UserID:  msg.UserID,
			Issuer:  models.AutoIssuer(),
			Reason:  reason,
			Auto:    true,
			Content: msg.Content,
		})
		return OutcomeMuted, true, err
	}

	return OutcomeNone, false, nil
}

// checkBlockedLinks 禁链检查
func (e *Engine) checkBlockedLinks(msg Message) (Outcome, bool, error) {
	links := classifier.ExtractLinks(msg.Content)
	if len(links) == 0 {
		return OutcomeNone, false, nil
	}

	patterns, err := e.blocklist.LinkPatterns()
	if err != nil {
		logrus.Errorf("❌ 加载禁链规则失败: %v", err)
		return OutcomeNone, false, nil
	}

	for _, link := range links {
		if classifier.MatchSubstring(link, patterns) != "" {
			e.deleteMessage(msg)
			reason := fmt.Sprintf("Gửi link bị cấm: %s", link)
			outcome, err := e.autoWarn(msg, reason)
			return outcome, true, err
		}
	}
	return OutcomeNone, false, nil
}

// checkSpam 刷屏检测。
// 限速标记生效期间的消息直接删除，不再重复告警。
func (e *Engine) checkSpam(msg Message) (Outcome, error) {
	if e.tracker.IsRateLimited(msg.GuildID, msg.UserID) {
		e.deleteMessage(msg)
		return OutcomeDeleted, nil
	}

	signals := e.tracker.Track(msg.GuildID, msg.UserID, msg.ChannelID, msg.Content, msg.MentionCount)

	if signals.RateLimit {
		e.tracker.MarkRateLimited(msg.GuildID, msg.UserID, rateLimitMarkSeconds)
		e.deleteMessage(msg)
		_ = e.gateway.SendDM(msg.UserID, "⚠️ Cảnh báo tốc độ",
			"Bạn đang gửi tin nhắn quá nhanh. Vui lòng chậm lại, tin nhắn của bạn sẽ bị xóa trong 60 giây tới.")
		e.executor.SendLogEvent(platform.LogEvent{
			Kind:     platform.EventSpam,
			Action:   models.OpSlowmode,
			GuildID:  msg.GuildID,
			UserID:   msg.UserID,
			Issuer:   models.AutoIssuer(),
			Reason:   "Gửi tin nhắn quá nhanh, áp dụng giới hạn 60 giây",
			Auto:     true,
			SpamType: "Giới hạn tốc độ",
		})
		return OutcomeDeleted, nil
	}

	if !signals.Any() {
		return OutcomeNone, nil
	}

	e.deleteMessage(msg)
	types := signals.TypeLabels()
	reason := fmt.Sprintf("Auto spam detection: %s", strings.Join(types, ", "))

	// 高压信号（消息刷屏 / 刷提及）直接禁言，其余走警告升级
	if signals.MessageSpam || signals.MentionSpam {
		err := e.executor.Mute(msg.GuildID, msg.UserID, "5m", reason, models.AutoIssuer())
		e.executor.SendLogEvent(platform.LogEvent{
			Kind:     platform.EventSpam,
			Action:   models.OpMute,
			GuildID:  msg.GuildID,
			UserID:   msg.UserID,
			Issuer:   models.AutoIssuer(),
			Reason:   reason,
			Duration: "5m",
			Auto:     true,
			SpamType: strings.Join(types, ", "),
			Details:  strings.Join(signals.Details, "; "),
		})
		return OutcomeMuted, err
	}

	return e.autoWarn(msg, reason)
}

// autoWarn 自动警告并按升级结果归类结论
func (e *Engine) autoWarn(msg Message, reason string) (Outcome, error) {
	result, err := e.escalator.RecordWarning(msg.GuildID, msg.UserID, reason, models.AutoIssuer(), true)
	if err != nil {
		return OutcomeWarned, err
	}

	e.executor.SendLogEvent(platform.LogEvent{
		Kind:       platform.EventWarning,
		Action:     models.OpWarn,
		GuildID:    msg.GuildID,
		UserID:     msg.UserID,
		Issuer:     models.AutoIssuer(),
		Reason:     reason,
		Auto:       true,
		Level:      result.Level,
		TotalWarns: result.Total,
	})

	if result.Sanctioned {
		if result.Sanction == string(models.SanctionBan) {
			return OutcomeBanned, nil
		}
		return OutcomeMuted, nil
	}
	return OutcomeWarned, nil
}

// deleteMessage 删除涉事消息，失败仅记日志
func (e *Engine) deleteMessage(msg Message) {
	if err := e.gateway.DeleteMessage(msg.GuildID, msg.ChannelID, msg.MessageID); err != nil && !apperr.IsNotFound(err) {
		logrus.Warnf("⚠️ 删除消息失败: %v", err)
	}
}

// IssueWarning 人工警告
func (e *Engine) IssueWarning(guildID, targetID, actorID, reason string) (escalation.Result, error) {
	if err := e.checkRank(guildID, actorID, targetID); err != nil {
		return escalation.Result{}, err
	}

	result, err := e.escalator.RecordWarning(guildID, targetID, reason, models.OperatorIssuer(actorID), false)
	if err != nil {
		return result, err
	}

	e.executor.SendLogEvent(platform.LogEvent{
		Kind:       platform.EventWarning,
		Action:     models.OpWarn,
		GuildID:    guildID,
		UserID:     targetID,
		Issuer:     models.OperatorIssuer(actorID),
		Reason:     reason,
		Level:      result.Level,
		TotalWarns: result.Total,
	})
	return result, nil
}

// RemoveWarning 撤销最近一条警告，返回剩余数量
func (e *Engine) RemoveWarning(guildID, targetID, actorID string) (int, error) {
	remaining, err := e.escalator.RemoveLastWarning(guildID, targetID)
	if err != nil {
		return remaining, err
	}

	e.executor.SendLogEvent(platform.LogEvent{
		Kind:       platform.EventWarning,
		Action:     models.OpUnwarn,
		GuildID:    guildID,
		UserID:     targetID,
		Issuer:     models.OperatorIssuer(actorID),
		TotalWarns: remaining,
	})
	return remaining, nil
}

// Mute 人工禁言。时长格式非法时拒绝执行。
func (e *Engine) Mute(guildID, targetID, actorID, durationSpec, reason string) error {
	if durationSpec != "" && !utils.IsDurationSpec(durationSpec) {
		return apperr.InvalidInput("时长格式非法: %s", durationSpec)
	}
	if err := e.checkRank(guildID, actorID, targetID); err != nil {
		return err
	}
	return e.executor.Mute(guildID, targetID, durationSpec, reason, models.OperatorIssuer(actorID))
}

// Ban 人工封禁
func (e *Engine) Ban(guildID, targetID, actorID, durationSpec, reason string) error {
	if durationSpec != "" && !utils.IsDurationSpec(durationSpec) {
		return apperr.InvalidInput("时长格式非法: %s", durationSpec)
	}
	if err := e.checkRank(guildID, actorID, targetID); err != nil {
		return err
	}
	return e.executor.Ban(guildID, targetID, durationSpec, reason, models.OperatorIssuer(actorID))
}

// Unmute 人工解除禁言
func (e *Engine) Unmute(guildID, targetID, actorID, reason string) error {
	return e.executor.Reverse(guildID, targetID, models.SanctionMute, reason, models.OperatorIssuer(actorID))
}

// Unban 人工解除封禁
func (e *Engine) Unban(guildID, targetID, actorID, reason string) error {
	return e.executor.Reverse(guildID, targetID, models.SanctionBan, reason, models.OperatorIssuer(actorID))
}

// SetBypass 添加豁免项
func (e *Engine) SetBypass(guildID, kind, subjectID string) error {
	return e.policy.SetBypass(guildID, kind, subjectID)
}

// ClearBypass 移除豁免项
func (e *Engine) ClearBypass(guildID, kind, subjectID string) error {
	return e.policy.ClearBypass(guildID, kind, subjectID)
}

// SetLogChannel 设置日志频道
func (e *Engine) SetLogChannel(guildID, channelID string) error {
	return e.policy.SetLogChannel(guildID, channelID)
}

// SetMutedRole 设置禁言角色
func (e *Engine) SetMutedRole(guildID, roleID string) error {
	return e.policy.SetMutedRole(guildID, roleID)
}

// GuildStatus 服务器审核配置概览
type GuildStatus struct {
	LogChannelID   string
	MutedRoleID    string
	BypassUsers    int
	BypassRoles    int
	BypassChannels int
	TotalWarnings  int
}

// WarningCount 查询用户累计警告数
func (e *Engine) WarningCount(guildID, userID string) (int, error) {
	return e.escalator.WarningCount(guildID, userID)
}

// Status 查询服务器审核配置与警告总数
func (e *Engine) Status(guildID string) (GuildStatus, error) {
	pol, err := e.policy.Get(guildID)
	if err != nil {
		return GuildStatus{}, err
	}
	total, err := e.escalator.GuildWarningCount(guildID)
	if err != nil {
		return GuildStatus{}, err
	}
	return GuildStatus{
		LogChannelID:   pol.LogChannelID,
		MutedRoleID:    pol.MutedRoleID,
		BypassUsers:    len(pol.BypassUsers),
		BypassRoles:    len(pol.BypassRoles),
		BypassChannels: len(pol.BypassChannels),
		TotalWarnings:  total,
	}, nil
}

// checkRank 角色等级校验：执行人角色不高于目标时拒绝
func (e *Engine) checkRank(guildID, actorID, targetID string) error {
	higher, err := e.gateway.HasHigherRole(guildID, actorID, targetID)
	if err != nil {
		// 平台查询失败时保守放行，由平台权限兜底
		logrus.Warnf("⚠️ 角色等级查询失败: %v", err)
		return nil
	}
	if !higher {
		return apperr.ErrPermissionDenied
	}
	return nil
}
