package base

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity 所有业务实体的公共字段（主键 + 时间戳 + 软删除标记）
// 嵌入到各模型中，保持表结构一致。
type Entity struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `gorm:"size:64" json:"createdBy"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `gorm:"size:64" json:"updatedBy"`
	DeletedAt *time.Time `json:"deletedAt"`
	DeletedBy string     `gorm:"size:64" json:"deletedBy"`
	// Status true 表示有效（未下线/未软删）
	Status bool `gorm:"default:true" json:"status"`
}

// NewID 生成 32 位无连字符的实体 ID
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
