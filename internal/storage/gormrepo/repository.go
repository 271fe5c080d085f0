package gormrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taoyao-code/nextpm-decoder/internal/storage"
	"github.com/taoyao-code/nextpm-decoder/internal/storage/models"
)

const maxListLimit = 500

// Repository 基于 GORM 的 HistoryRepo 实现
type Repository struct {
	db *gorm.DB
}

// New 返回一个使用给定 *gorm.DB 的 HistoryRepo 实例。
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Open 复用 pgx 连接池创建 *gorm.DB，避免维护两套连接
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Migrate 创建/更新 decode_records 表
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&models.DecodeRecord{})
}

// SaveDecode 插入一条解码记录
func (r *Repository) SaveDecode(ctx context.Context, rec *models.DecodeRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// GetDecode 按 ID 查询
func (r *Repository) GetDecode(ctx context.Context, id string) (*models.DecodeRecord, error) {
	var rec models.DecodeRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListDecodes 分页返回记录，按 created_at 倒序。
func (r *Repository) ListDecodes(ctx context.Context, cmd *int16, limit, offset int) ([]models.DecodeRecord, error) {
	var recs []models.DecodeRecord
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if cmd != nil {
		q = q.Where("command = ?", *cmd)
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	q = q.Limit(limit)
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

var _ storage.HistoryRepo = (*Repository)(nil)
