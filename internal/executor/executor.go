package executor

import (
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/platform"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/scheduler"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/service"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/sirupsen/logrus"
)

// 平台禁言时长上限（28天）。永久禁言以该上限滚动执行，记录本身保持永久。
const maxTimeoutSeconds = 2419200

// Executor 制裁执行器。
// 执行平台动作、写制裁台账、布防到期解除定时器，并输出日志事件。
type Executor struct {
	sanctions *service.SanctionService
	policy    *service.PolicyService
	oplog     *service.LogService
	gateway   platform.Gateway
	timers    *scheduler.Timers
	pool      *utils.WorkerPool
	limiter   *utils.RateLimiter

	purgeLookback int
	now           func() time.Time
}

// New 创建制裁执行器
func New(sanctions *service.SanctionService, policy *service.PolicyService,
	oplog *service.LogService, gateway platform.Gateway, timers *scheduler.Timers,
	pool *utils.WorkerPool, limiter *utils.RateLimiter, purgeLookback int) *Executor {

	if purgeLookback <= 0 || purgeLookback > 100 {
		purgeLookback = 100
	}

	return &Executor{
		sanctions:     sanctions,
		policy:        policy,
		oplog:         oplog,
		gateway:       gateway,
		timers:        timers,
		pool:          pool,
		limiter:       limiter,
		purgeLookback: purgeLookback,
		now:           time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (e *Executor) SetClock(now func() time.Time) {
	e.now = now
}

// Mute 禁言用户。
// 时长为空表示永久：平台禁言按28天上限执行，台账记录无过期时间。
func (e *Executor) Mute(guildID, userID, durationSpec, reason string, issuer models.Issuer) error {
	now := e.now()
	seconds, finite := utils.ParseDuration(durationSpec)
	expireAt := utils.ExpiryTime(durationSpec, now)

	timeoutSeconds := seconds
	if !finite || timeoutSeconds > maxTimeoutSeconds {
		timeoutSeconds = maxTimeoutSeconds
	}
	until := now.Add(time.Duration(timeoutSeconds) * time.Second)

	// 禁言角色尽力添加，平台禁言是权威动作
	policy, err := e.policy.Get(guildID)
	if err == nil && policy.MutedRoleID != "" {
		if roleErr := e.gateway.ApplyMutedRole(guildID, userID, policy.MutedRoleID, reason); roleErr != nil {
			logrus.WithFields(logrus.Fields{
				"服务器ID": guildID,
				"用户ID":  userID,
				"错误信息":  roleErr.Error(),
			}).Warn("⚠️ 禁言角色添加失败")
		}
	}

	if err := e.gateway.Timeout(guildID, userID, until, reason); err != nil {
		e.reportFailure(models.OpMute, guildID, userID, issuer, reason, durationSpec, err)
		return err
	}

	if _, err := e.sanctions.Record(guildID, userID, models.SanctionMute, issuer, reason, durationSpec, expireAt); err != nil {
		return err
	}

	if expireAt != nil {
		e.armReversal(guildID, userID, models.SanctionMute, *expireAt)
	}

	e.logEvent(platform.LogEvent{
		Kind:     platform.EventModeration,
		Action:   models.OpMute,
		GuildID:  guildID,
		UserID:   userID,
		Issuer:   issuer,
		Reason:   reason,
		Duration: durationSpec,
		Auto:     issuer.IsAuto(),
	})
	_ = e.oplog.Record(models.OpMute, guildID, userID, issuer, reason, durationSpec, true, "")

	logrus.WithFields(logrus.Fields{
		"服务器ID": guildID,
		"用户ID":  userID,
		"时长":    utils.FormatDuration(durationSpec),
	}).Info("🔇 已禁言用户")
	return nil
}

// Ban 封禁用户。
// 封禁成功后异步清理该用户的近期消息：不阻塞封禁结果，单条失败直接吞掉。
func (e *Executor) Ban(guildID, userID, durationSpec, reason string, issuer models.Issuer) error {
	now := e.now()
	expireAt := utils.ExpiryTime(durationSpec, now)

	if err := e.gateway.Ban(guildID, userID, reason); err != nil {
		e.reportFailure(models.OpBan, guildID, userID, issuer, reason, durationSpec, err)
		return err
	}

	// 脱离主流程的后台清理
	go e.purgeUserMessages(guildID, userID)

	if _, err := e.sanctions.Record(guildID, userID, models.SanctionBan, issuer, reason, durationSpec, expireAt); err != nil {
		return err
	}

	if expireAt != nil {
		e.armReversal(guildID, userID, models.SanctionBan, *expireAt)
	}

	e.logEvent(platform.LogEvent{
		Kind:     platform.EventModeration,
		Action:   models.OpBan,
		GuildID:  guildID,
		UserID:   userID,
		Issuer:   issuer,
		Reason:   reason,
		Duration: durationSpec,
		Auto:     issuer.IsAuto(),
	})
	_ = e.oplog.Record(models.OpBan, guildID, userID, issuer, reason, durationSpec, true, "")

	logrus.WithFields(logrus.Fields{
		"服务器ID": guildID,
		"用户ID":  userID,
		"时长":    utils.FormatDuration(durationSpec),
	}).Info("🔨 已封禁用户")
	return nil
}

// Reverse 解除制裁（手动或到期触发）。
// 幂等：记录已不存在时为良性空操作，不升级为错误。
func (e *Executor) Reverse(guildID, userID string, kind models.SanctionKind, reason string, issuer models.Issuer) error {
	e.timers.Cancel(scheduler.Key(guildID, userID, string(kind)))

	lifted, err := e.sanctions.Lift(guildID, userID, kind, reason, issuer.Display())
	if err != nil {
		return err
	}

	// 平台层撤销；目标已不在或记录已不存在都视为良性
	var platformErr error
	switch kind {
	case models.SanctionMute:
		policy, perr := e.policy.Get(guildID)
		if perr == nil && policy.MutedRoleID != "" {
			if roleErr := e.gateway.RemoveMutedRole(guildID, userID, policy.MutedRoleID, reason); roleErr != nil && !apperr.IsNotFound(roleErr) {
				logrus.Warnf("⚠️ 禁言角色移除失败: %v", roleErr)
			}
		}
		platformErr = e.gateway.ClearTimeout(guildID, userID, reason)
	case models.SanctionBan:
		platformErr = e.gateway.Unban(guildID, userID, reason)
	}

	if platformErr != nil && !apperr.IsNotFound(platformErr) {
		action := models.OpUnmute
		if kind == models.SanctionBan {
			action = models.OpUnban
		}
		e.reportFailure(action, guildID, userID, issuer, reason, "", platformErr)
		return platformErr
	}

	if !lifted {
		// 台账无活动记录：平台侧无论是本就干净还是顺手清掉空超时，
		// 都没有可审计的状态变化
		return nil
	}

	action := models.OpUnmute
	if kind == models.SanctionBan {
		action = models.OpUnban
	}
	e.logEvent(platform.LogEvent{
		Kind:    platform.EventModeration,
		Action:  action,
		GuildID: guildID,
		UserID:  userID,
		Issuer:  issuer,
		Reason:  reason,
		Auto:    issuer.IsAuto(),
	})
	_ = e.oplog.Record(action, guildID, userID, issuer, reason, "", true, "")

	logrus.WithFields(logrus.Fields{
		"服务器ID": guildID,
		"用户ID":  userID,
		"类型":    kind,
	}).Info("🔓 已解除制裁")
	return nil
}

// armReversal 布防到期自动解除。
// 触发时重新校验台账状态：记录已被人工解除或被新制裁覆盖时不动作。
func (e *Executor) armReversal(guildID, userID string, kind models.SanctionKind, expireAt time.Time) {
	key := scheduler.Key(guildID, userID, string(kind))
	e.timers.After(key, time.Until(expireAt), func() {
		active, err := e.sanctions.GetActive(guildID, userID, kind)
		if err != nil {
			logrus.Errorf("❌ 到期校验失败: %v", err)
			return
		}
		if active != nil && active.ExpireAt != nil && active.ExpireAt.After(e.now()) {
			// 记录已被覆盖为更晚的到期时间，这是过期定时器
			return
		}

		reason := "Hết thời hạn mute"
		if kind == models.SanctionBan {
			reason = "Hết thời hạn cấm"
		}
		if err := e.Reverse(guildID, userID, kind, reason, models.AutoIssuer()); err != nil {
			logrus.Errorf("❌ 到期自动解除失败: %v", err)
		}
	})
}

// reportFailure 执法失败上报：写审计日志并发送到日志频道，绝不静默吞掉
func (e *Executor) reportFailure(action, guildID, userID string, issuer models.Issuer,
	reason, duration string, cause error) {

	logrus.WithFields(logrus.Fields{
		"操作":    action,
		"服务器ID": guildID,
		"用户ID":  userID,
		"错误信息":  cause.Error(),
	}).Error("❌ 执法动作失败")

	_ = e.oplog.Record(action, guildID, userID, issuer, reason, duration, false, cause.Error())
}

// logEvent 将事件发送到该服务器配置的日志频道
func (e *Executor) logEvent(event platform.LogEvent) {
	policy, err := e.policy.Get(event.GuildID)
	if err != nil || policy.LogChannelID == "" {
		return
	}
	_ = e.gateway.SendLog(policy.LogChannelID, event)
}

// SendLogEvent 供上层组件复用的日志频道出口
func (e *Executor) SendLogEvent(event platform.LogEvent) {
	e.logEvent(event)
}

// purgeUserMessages 清理用户在各频道的近期消息。
// 有界回溯（每频道最多 purgeLookback 条），按服务器限速，单条失败吞掉。
func (e *Executor) purgeUserMessages(guildID, userID string) {
	channels, err := e.gateway.TextChannels(guildID)
	if err != nil {
		logrus.Warnf("⚠️ 获取频道列表失败，跳过消息清理: %v", err)
		return
	}

	for _, channelID := range channels {
		chID := channelID
		e.pool.Submit(func() {
			e.limiter.Wait(guildID)
			ids, err := e.gateway.RecentMessageIDs(chID, userID, e.purgeLookback)
			if err != nil {
				return
			}
			for _, msgID := range ids {
				e.limiter.Wait(guildID)
				if err := e.gateway.DeleteChannelMessage(chID, msgID); err != nil {
					// 已删除/无权限等都不中断清理
					continue
				}
			}
		})
	}
}
