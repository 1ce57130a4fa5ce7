package service

import (
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SanctionService 制裁台账服务
type SanctionService struct {
	repo *storage.Repository
	now  func() time.Time
}

// NewSanctionService 创建制裁服务
func NewSanctionService(repo *storage.Repository) *SanctionService {
	return &SanctionService{
		repo: repo,
		now:  time.Now,
	}
}

// Record 写入制裁记录。
// 同一 (服务器,用户,类型) 已有生效记录时先解除旧记录再写新记录（后写胜出）。
func (s *SanctionService) Record(guildID, userID string, kind models.SanctionKind,
	issuer models.Issuer, reason, duration string, expireAt *time.Time) (*models.Sanction, error) {

	reason = utils.SafeReason(reason)
	now := s.now()

	sanction := &models.Sanction{
		GuildID:     guildID,
		UserID:      userID,
		Kind:        kind,
		IssuerKind:  issuer.Kind,
		IssuerID:    issuer.ID,
		IssuerLabel: issuer.Label,
		Reason:      reason,
		Duration:    duration,
		ExpireAt:    expireAt,
		CreatedAt:   now,
		Status:      1,
	}

	err := s.repo.WithDataset(storage.DatasetSanctions, func(db *gorm.DB) error {
		// 先解除同类型的旧生效记录
		if err := db.Model(&models.Sanction{}).
			Where("guild_id = ? AND user_id = ? AND kind = ? AND status = 1", guildID, userID, kind).
			Updates(map[string]interface{}{
				"status":      0,
				"lift_reason": "被新制裁覆盖",
				"lift_at":     now,
			}).Error; err != nil {
			return err
		}

		return db.Create(sanction).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"服务器ID": guildID,
			"用户ID":  userID,
			"类型":    kind,
			"错误信息":  err.Error(),
		}).Error("❌ 保存制裁记录失败")
		return nil, err
	}

	return sanction, nil
}

// Lift 解除制裁，返回是否确有记录被解除。
// 记录不存在不是错误：解除路径要求幂等。
func (s *SanctionService) Lift(guildID, userID string, kind models.SanctionKind,
	reason, liftBy string) (bool, error) {

	now := s.now()
	var lifted bool
	err := s.repo.WithDataset(storage.DatasetSanctions, func(db *gorm.DB) error {
		result := db.Model(&models.Sanction{}).
			Where("guild_id = ? AND user_id = ? AND kind = ? AND status = 1", guildID, userID, kind).
			Updates(map[string]interface{}{
				"status":      0,
				"lift_reason": utils.SafeReason(reason),
				"lift_at":     now,
				"lift_by":     liftBy,
			})
		if result.Error != nil {
			return result.Error
		}
		lifted = result.RowsAffected > 0
		return nil
	})
	return lifted, err
}

// GetActive 查询生效中的制裁记录，无记录返回 nil
func (s *SanctionService) GetActive(guildID, userID string, kind models.SanctionKind) (*models.Sanction, error) {
	var sanction models.Sanction
	err := s.repo.DB().
		Where("guild_id = ? AND user_id = ? AND kind = ? AND status = 1", guildID, userID, kind).
		Order("created_at DESC").
		First(&sanction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if sanction.IsExpired() {
		return nil, nil
	}
	return &sanction, nil
}

// ActiveSanctions 获取所有生效中的制裁记录（启动对账用）
func (s *SanctionService) ActiveSanctions() ([]models.Sanction, error) {
	var sanctions []models.Sanction
	err := s.repo.DB().Where("status = 1").Find(&sanctions).Error
	return sanctions, err
}

// ExpiredSanctions 获取已过期但状态仍为生效的记录（定时清扫用）
func (s *SanctionService) ExpiredSanctions() ([]models.Sanction, error) {
	var sanctions []models.Sanction
	err := s.repo.DB().
		Where("status = 1 AND expire_at IS NOT NULL AND expire_at <= ?", s.now()).
		Find(&sanctions).Error
	return sanctions, err
}
