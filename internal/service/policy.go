package service

import (
	"errors"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"

	"gorm.io/gorm"
)

// Policy 解码后的服务器策略视图
type Policy struct {
	GuildID        string
	LogChannelID   string
	MutedRoleID    string
	BypassUsers    []string
	BypassRoles    []string
	BypassChannels []string
}

// IsBypassed 检查是否豁免执法。
// 纯 OR 语义：管理员、豁免用户、豁免频道、任一豁免角色，检查顺序不影响结果。
func (p *Policy) IsBypassed(userID, channelID string, roleIDs []string, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	if contains(p.BypassUsers, userID) {
		return true
	}
	if contains(p.BypassChannels, channelID) {
		return true
	}
	for _, roleID := range roleIDs {
		if contains(p.BypassRoles, roleID) {
			return true
		}
	}
	return false
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// PolicyService 服务器策略服务
type PolicyService struct {
	repo *storage.Repository
}

// NewPolicyService 创建策略服务
func NewPolicyService(repo *storage.Repository) *PolicyService {
	return &PolicyService{repo: repo}
}

// Get 读取服务器策略，不存在时返回空策略（调用方必须容忍缺失）
func (s *PolicyService) Get(guildID string) (*Policy, error) {
	var row models.GuildPolicy
	err := s.repo.DB().Where("guild_id = ?", guildID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Policy{GuildID: guildID,
				BypassUsers:    []string{},
				BypassRoles:    []string{},
				BypassChannels: []string{}}, nil
		}
		return nil, err
	}

	return &Policy{
		GuildID:        row.GuildID,
		LogChannelID:   row.LogChannelID,
		MutedRoleID:    row.MutedRoleID,
		BypassUsers:    storage.DecodeIDList(row.BypassUsers),
		BypassRoles:    storage.DecodeIDList(row.BypassRoles),
		BypassChannels: storage.DecodeIDList(row.BypassChannels),
	}, nil
}

// SetLogChannel 设置日志频道
func (s *PolicyService) SetLogChannel(guildID, channelID string) error {
	return s.upsert(guildID, func(row *models.GuildPolicy) {
		row.LogChannelID = channelID
	})
}

// SetMutedRole 设置禁言角色
func (s *PolicyService) SetMutedRole(guildID, roleID string) error {
	return s.upsert(guildID, func(row *models.GuildPolicy) {
		row.MutedRoleID = roleID
	})
}

// SetBypass 添加豁免对象
func (s *PolicyService) SetBypass(guildID, kind, subjectID string) error {
	if !models.ValidBypassKind(kind) {
		return apperr.InvalidInput("未知的豁免类型: %s", kind)
	}
	return s.upsert(guildID, func(row *models.GuildPolicy) {
		col := bypassColumn(row, kind)
		ids := storage.DecodeIDList(*col)
		if !contains(ids, subjectID) {
			ids = append(ids, subjectID)
		}
		*col = storage.EncodeIDList(ids)
	})
}

// ClearBypass 移除豁免对象
func (s *PolicyService) ClearBypass(guildID, kind, subjectID string) error {
	if !models.ValidBypassKind(kind) {
		return apperr.InvalidInput("未知的豁免类型: %s", kind)
	}
	return s.upsert(guildID, func(row *models.GuildPolicy) {
		col := bypassColumn(row, kind)
		ids := storage.DecodeIDList(*col)
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != subjectID {
				kept = append(kept, id)
			}
		}
		*col = storage.EncodeIDList(kept)
	})
}

// HasBypass 查询豁免对象是否存在
func (s *PolicyService) HasBypass(guildID, kind, subjectID string) (bool, error) {
	policy, err := s.Get(guildID)
	if err != nil {
		return false, err
	}
	switch models.BypassKind(kind) {
	case models.BypassUser:
		return contains(policy.BypassUsers, subjectID), nil
	case models.BypassRole:
		return contains(policy.BypassRoles, subjectID), nil
	case models.BypassChannel:
		return contains(policy.BypassChannels, subjectID), nil
	}
	return false, apperr.InvalidInput("未知的豁免类型: %s", kind)
}

// upsert 在 policy 数据集锁内执行读改写。
// 策略只合并更新，从不整体删除；首次写入时创建行。
func (s *PolicyService) upsert(guildID string, mutate func(*models.GuildPolicy)) error {
	return s.repo.WithDataset(storage.DatasetPolicy, func(db *gorm.DB) error {
		var row models.GuildPolicy
		err := db.Where("guild_id = ?", guildID).First(&row).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row = models.GuildPolicy{
				GuildID:        guildID,
				BypassUsers:    "[]",
				BypassRoles:    "[]",
				BypassChannels: "[]",
			}
		}

		mutate(&row)
		return db.Save(&row).Error
	})
}

func bypassColumn(row *models.GuildPolicy, kind string) *string {
	switch models.BypassKind(kind) {
	case models.BypassUser:
		return &row.BypassUsers
	case models.BypassRole:
		return &row.BypassRoles
	default:
		return &row.BypassChannels
	}
}
