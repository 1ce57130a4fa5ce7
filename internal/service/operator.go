package service

import (
	"errors"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"gorm.io/gorm"
)

// OperatorService 授权操作者服务
type OperatorService struct {
	repo *storage.Repository
}

// NewOperatorService 创建操作者服务
func NewOperatorService(repo *storage.Repository) *OperatorService {
	return &OperatorService{repo: repo}
}

// IsAuthorized 检查用户是否为授权操作者
func (s *OperatorService) IsAuthorized(userID string) (bool, error) {
	var op models.Operator
	err := s.repo.DB().Where("user_id = ?", userID).First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Add 添加授权操作者（已存在时不重复添加）
func (s *OperatorService) Add(userID, userName, addedBy string) error {
	return s.repo.WithDataset(storage.DatasetOperators, func(db *gorm.DB) error {
		var existing models.Operator
		err := db.Where("user_id = ?", userID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return db.Create(&models.Operator{
			UserID:   userID,
			UserName: utils.SafeUserName(userName),
			AddedBy:  addedBy,
		}).Error
	})
}

// Remove 移除授权操作者
func (s *OperatorService) Remove(userID string) error {
	return s.repo.WithDataset(storage.DatasetOperators, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Delete(&models.Operator{}).Error
	})
}

// List 列出所有授权操作者
func (s *OperatorService) List() ([]models.Operator, error) {
	var operators []models.Operator
	err := s.repo.DB().Order("added_at ASC").Find(&operators).Error
	return operators, err
}
