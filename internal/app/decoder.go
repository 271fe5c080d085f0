package app

import (
	"fmt"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/nextpm-decoder/internal/config"
	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
)

// NewDecoder 内置 schema + 可选的扩展 schema 文件与状态位文件
func NewDecoder(cfg cfgpkg.DecoderConfig, log *zap.Logger) (*nextpm.Decoder, error) {
	reg := nextpm.DefaultRegistry()
	if cfg.SchemaFile != "" {
		extra, err := nextpm.LoadSchemaFile(cfg.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("load schema file: %w", err)
		}
		if reg, err = nextpm.ExtendRegistry(reg, extra...); err != nil {
			return nil, fmt.Errorf("extend registry: %w", err)
		}
		log.Info("extra schemas loaded",
			zap.String("path", cfg.SchemaFile),
			zap.Int("count", len(extra)))
	}

	status := nextpm.DefaultStatusInterpreter()
	if cfg.StatusFile != "" {
		bits, err := nextpm.LoadStatusBits(cfg.StatusFile)
		if err != nil {
			return nil, fmt.Errorf("load status file: %w", err)
		}
		if status, err = nextpm.NewStatusInterpreter(bits...); err != nil {
			return nil, fmt.Errorf("status bits: %w", err)
		}
		log.Info("status bits loaded",
			zap.String("path", cfg.StatusFile),
			zap.Int("count", len(bits)))
	}

	log.Info("decoder ready",
		zap.Int("schemas", reg.Len()),
		zap.Bool("strict_hex", cfg.StrictHex))
	return nextpm.NewDecoder(reg, status), nil
}
