package storage

import (
	"context"
	"errors"

	"github.com/taoyao-code/nextpm-decoder/internal/storage/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// HistoryRepo 解码历史存储抽象。
// 约束：
// - 上层不直接写 SQL，统一通过本接口访问
// - 接口保持 DB-agnostic（面向模型与基础类型）
type HistoryRepo interface {
	// SaveDecode 追加一条解码记录
	SaveDecode(ctx context.Context, rec *models.DecodeRecord) error
	// GetDecode 按 ID 查询，不存在返回 ErrNotFound
	GetDecode(ctx context.Context, id string) (*models.DecodeRecord, error)
	// ListDecodes 按时间倒序分页；cmd 非 nil 时只返回该命令字
	ListDecodes(ctx context.Context, cmd *int16, limit, offset int) ([]models.DecodeRecord, error)
}
