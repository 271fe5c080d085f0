package models

import (
	"time"
)

// DecodeRecord 映射 decode_records 表：每次解码请求一条，成功与失败都记录
type DecodeRecord struct {
	// 主键（UUID 文本）
	ID string `gorm:"column:id;type:varchar(36);primaryKey"`
	// 归一化后的帧，如 "81 16 00 69"；归一化失败时为原始输入
	Hex string `gorm:"column:hex;type:text;not null"`
	// 命令字，帧过短时为空
	Command  *int16 `gorm:"column:command;index:idx_decode_cmd_time,priority:1"`
	SchemaID string `gorm:"column:schema_id;type:varchar(64)"`
	Success  bool   `gorm:"column:success;not null"`
	// 失败原因（ErrorKind 的 snake_case 名称与完整信息）
	ErrKind    string `gorm:"column:err_kind;type:varchar(32)"`
	ErrMessage string `gorm:"column:err_message;type:text"`
	// 解码结果 JSON（字段、状态、校验和）
	Result    []byte    `gorm:"column:result;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_decode_cmd_time,priority:2,sort:desc"`
}

func (DecodeRecord) TableName() string { return "decode_records" }
