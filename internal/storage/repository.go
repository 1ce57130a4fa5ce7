package storage

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 逻辑数据集名称。每个数据集对应一组表和一把互斥锁。
const (
	DatasetPolicy    = "policy"
	DatasetWarnings  = "warnings"
	DatasetSanctions = "sanctions"
	DatasetBlocklist = "blocklist"
	DatasetOperators = "operators"
)

var datasetNames = []string{
	DatasetPolicy,
	DatasetWarnings,
	DatasetSanctions,
	DatasetBlocklist,
	DatasetOperators,
}

// Repository 数据仓库。
// 持有数据库连接和每数据集一把的互斥锁：同一数据集上的读改写序列串行执行，
// 不同数据集互不阻塞。构造一次后传给所有服务，不使用包级全局状态。
type Repository struct {
	db    *gorm.DB
	locks map[string]*sync.Mutex
}

// NewRepository 创建数据仓库
func NewRepository(db *gorm.DB) *Repository {
	locks := make(map[string]*sync.Mutex, len(datasetNames))
	for _, name := range datasetNames {
		locks[name] = &sync.Mutex{}
	}
	return &Repository{
		db:    db,
		locks: locks,
	}
}

// DB 返回底层数据库连接（只读查询可不经数据集锁）
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// WithDataset 在指定数据集的锁内执行读改写序列。
// 锁的粒度覆盖整个序列而不是单条语句，避免并发读改写交错造成丢失更新。
func (r *Repository) WithDataset(name string, fn func(db *gorm.DB) error) error {
	lock, ok := r.locks[name]
	if !ok {
		// 未注册的数据集名视为编程错误，退化为无锁执行并告警
		logrus.WithField("数据集", name).Warn("⚠️ 访问了未注册的数据集")
		return fn(r.db)
	}

	lock.Lock()
	defer lock.Unlock()
	return fn(r.db)
}

// DecodeIDList 解码 JSON 数组文本列。
// 空列或损坏的列按空列表降级处理（可用性优先），损坏时记录告警。
func DecodeIDList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logrus.WithFields(logrus.Fields{
			"内容":   raw,
			"错误信息": err.Error(),
		}).Warn("⚠️ 存储列JSON损坏，已按空列表处理")
		return []string{}
	}
	return ids
}

// EncodeIDList 编码 ID 列表为 JSON 数组文本
func EncodeIDList(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
