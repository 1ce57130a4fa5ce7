package service

import (
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"
)

// LogService 操作审计日志服务
type LogService struct {
	repo *storage.Repository
}

// NewLogService 创建日志服务
func NewLogService(repo *storage.Repository) *LogService {
	return &LogService{repo: repo}
}

// Record 记录操作日志
func (s *LogService) Record(operation, guildID, targetUserID string, issuer models.Issuer,
	reason, duration string, success bool, errorMsg string) error {

	entry := &models.OperationLog{
		Operation:    operation,
		GuildID:      guildID,
		TargetUserID: targetUserID,
		IssuerKind:   issuer.Kind,
		IssuerID:     issuer.ID,
		IssuerLabel:  issuer.Label,
		Reason:       reason,
		Duration:     duration,
		Success:      boolToInt8(success),
		ErrorMsg:     errorMsg,
	}

	return s.repo.DB().Create(entry).Error
}

// RecentForUser 获取用户最近的操作日志
func (s *LogService) RecentForUser(guildID, userID string, limit int) ([]models.OperationLog, error) {
	var logs []models.OperationLog
	query := s.repo.DB().
		Where("guild_id = ? AND target_user_id = ?", guildID, userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&logs).Error
	return logs, err
}

func boolToInt8(b bool) int8 {
	if b {
		return 1
	}
	return 0
}
