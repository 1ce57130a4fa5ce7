package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WarningService 警告台账服务。
// 每用户的警告列表只追加、只弹尾：不重排，不修改历史条目。
type WarningService struct {
	repo *storage.Repository
	now  func() time.Time
}

// NewWarningService 创建警告服务
func NewWarningService(repo *storage.Repository) *WarningService {
	return &WarningService{
		repo: repo,
		now:  time.Now,
	}
}

// Append 追加一条警告并返回该用户的警告总数
func (s *WarningService) Append(guildID, userID string, issuer models.Issuer, reason string, auto bool) (int, error) {
	reason = utils.SafeReason(reason)

	var total int64
	err := s.repo.WithDataset(storage.DatasetWarnings, func(db *gorm.DB) error {
		warning := &models.Warning{
			GuildID:     guildID,
			UserID:      userID,
			Reason:      reason,
			IssuerKind:  issuer.Kind,
			IssuerID:    issuer.ID,
			IssuerLabel: issuer.Label,
			Auto:        auto,
			CreatedAt:   s.now(),
		}
		if err := db.Create(warning).Error; err != nil {
			return err
		}
		return db.Model(&models.Warning{}).
			Where("guild_id = ? AND user_id = ?", guildID, userID).
			Count(&total).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"服务器ID": guildID,
			"用户ID":  userID,
			"错误信息":  err.Error(),
		}).Error("❌ 保存警告记录失败")
		return 0, err
	}

	return int(total), nil
}

// PopLast 弹出最近一条警告（LIFO），返回剩余数量。
// 无任何警告时返回 NotFound。
func (s *WarningService) PopLast(guildID, userID string) (int, error) {
	var remaining int64
	err := s.repo.WithDataset(storage.DatasetWarnings, func(db *gorm.DB) error {
		var last models.Warning
		err := db.Where("guild_id = ? AND user_id = ?", guildID, userID).
			Order("id DESC").
			First(&last).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 该用户没有警告记录", apperr.ErrNotFound)
			}
			return err
		}

		if err := db.Delete(&last).Error; err != nil {
			return err
		}
		return db.Model(&models.Warning{}).
			Where("guild_id = ? AND user_id = ?", guildID, userID).
			Count(&remaining).Error
	})
	if err != nil {
		return 0, err
	}

	return int(remaining), nil
}

// CountForUser 统计用户的警告数
func (s *WarningService) CountForUser(guildID, userID string) (int, error) {
	var total int64
	err := s.repo.DB().Model(&models.Warning{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Count(&total).Error
	return int(total), err
}

// CountForGuild 统计服务器的警告总数
func (s *WarningService) CountForGuild(guildID string) (int, error) {
	var total int64
	err := s.repo.DB().Model(&models.Warning{}).
		Where("guild_id = ?", guildID).
		Count(&total).Error
	return int(total), err
}

// ListForUser 按时间顺序返回用户的警告列表
func (s *WarningService) ListForUser(guildID, userID string) ([]models.Warning, error) {
	var warnings []models.Warning
	err := s.repo.DB().
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("id ASC").
		Find(&warnings).Error
	return warnings, err
}
