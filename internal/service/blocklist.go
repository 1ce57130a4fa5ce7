package service

import (
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"

	"gorm.io/gorm"
)

// BlocklistService 封禁规则服务。
// 规则表在消息处理期间只读，修改只通过编辑数据集本身。
type BlocklistService struct {
	repo *storage.Repository
}

// NewBlocklistService 创建封禁规则服务
func NewBlocklistService(repo *storage.Repository) *BlocklistService {
	return &BlocklistService{repo: repo}
}

// Rules 按插入顺序返回指定类型的规则
func (s *BlocklistService) Rules(kind models.BlockRuleKind) ([]models.BlockRule, error) {
	var rules []models.BlockRule
	err := s.repo.DB().
		Where("kind = ?", kind).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

// WordRules 违禁词规则
func (s *BlocklistService) WordRules() ([]models.BlockRule, error) {
	return s.Rules(models.BlockWord)
}

// LinkPatterns 封禁链接子串列表
func (s *BlocklistService) LinkPatterns() ([]string, error) {
	rules, err := s.Rules(models.BlockLink)
	if err != nil {
		return nil, err
	}
	patterns := make([]string, 0, len(rules))
	for _, r := range rules {
		patterns = append(patterns, r.Pattern)
	}
	return patterns, nil
}

// ScamDomains 诈骗域名列表
func (s *BlocklistService) ScamDomains() ([]string, error) {
	rules, err := s.Rules(models.BlockScamDomain)
	if err != nil {
		return nil, err
	}
	domains := make([]string, 0, len(rules))
	for _, r := range rules {
		domains = append(domains, r.Pattern)
	}
	return domains, nil
}

// Add 添加规则（数据集维护入口，运行时执法路径不调用）
func (s *BlocklistService) Add(rule *models.BlockRule) error {
	return s.repo.WithDataset(storage.DatasetBlocklist, func(db *gorm.DB) error {
		return db.Create(rule).Error
	})
}
