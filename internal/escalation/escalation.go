package escalation

import (
	"fmt"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/service"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/sirupsen/logrus"
)

// SanctionIssuer 升级动作的制裁能力接口，由执行器实现
type SanctionIssuer interface {
	Mute(guildID, userID, durationSpec, reason string, issuer models.Issuer) error
	Ban(guildID, userID, durationSpec, reason string, issuer models.Issuer) error
}

// Result 一次警告的处理结果
type Result struct {
	Level      int    // 本轮警告级别 1-3
	Total      int    // 累计警告总数
	Sanctioned bool   // 是否触发了附带制裁
	Sanction   string // 触发的制裁类型（mute/ban），未触发为空
}

// Escalator 警告升级状态机。
// 级别由累计总数推导：((total-1) % 3) + 1，循环 1→2→3→1。
// 2级附带10分钟禁言，3级附带1天封禁。
type Escalator struct {
	warnings *service.WarningService
	issuer   SanctionIssuer
	locks    *utils.KeyedMutex
}

// New 创建警告升级状态机
func New(warnings *service.WarningService, issuer SanctionIssuer) *Escalator {
	return &Escalator{
		warnings: warnings,
		issuer:   issuer,
		locks:    utils.NewKeyedMutex(),
	}
}

// RecordWarning 记录一次警告并按级别执行升级动作。
// 同一 (服务器, 用户) 的并发警告串行处理，警告先落账再触发制裁：
// 即使制裁失败，警告计数也已前进。
func (e *Escalator) RecordWarning(guildID, userID, reason string, issuer models.Issuer, auto bool) (Result, error) {
	key := guildID + ":" + userID
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	total, err := e.warnings.Append(guildID, userID, issuer, reason, auto)
	if err != nil {
		return Result{}, err
	}

	level := ((total - 1) % 3) + 1
	result := Result{Level: level, Total: total}

	logrus.WithFields(logrus.Fields{
		"服务器ID": guildID,
		"用户ID":  userID,
		"级别":    level,
		"累计":    total,
	}).Info("⚠️ 记录警告")

	switch level {
	case 2:
		escReason := fmt.Sprintf("Cảnh cáo lần 2: %s", reason)
		if err := e.issuer.Mute(guildID, userID, "10m", escReason, models.AutoIssuer()); err != nil {
			logrus.Errorf("❌ 2级警告附带禁言失败: %v", err)
			return result, err
		}
		result.Sanctioned = true
		result.Sanction = string(models.SanctionMute)
	case 3:
		escReason := fmt.Sprintf("Cảnh cáo lần 3: %s", reason)
		if err := e.issuer.Ban(guildID, userID, "1d", escReason, models.AutoIssuer()); err != nil {
			logrus.Errorf("❌ 3级警告附带封禁失败: %v", err)
			return result, err
		}
		result.Sanctioned = true
		result.Sanction = string(models.SanctionBan)
	}

	return result, nil
}

// RemoveLastWarning 撤销最近一条警告，返回剩余数量。
// 无警告记录时返回 apperr.ErrNotFound 包装错误。
func (e *Escalator) RemoveLastWarning(guildID, userID string) (int, error) {
	key := guildID + ":" + userID
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	return e.warnings.PopLast(guildID, userID)
}

// WarningCount 查询用户累计警告数
func (e *Escalator) WarningCount(guildID, userID string) (int, error) {
	return e.warnings.CountForUser(guildID, userID)
}

// GuildWarningCount 查询服务器累计警告总数
func (e *Escalator) GuildWarningCount(guildID string) (int, error) {
	return e.warnings.CountForGuild(guildID)
}
