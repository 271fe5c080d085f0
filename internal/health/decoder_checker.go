package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
)

// DecoderChecker 解码器自检：为每个已注册命令构造一帧全零负载并解码
type DecoderChecker struct {
	decoder *nextpm.Decoder
}

// NewDecoderChecker 创建解码器自检
func NewDecoderChecker(decoder *nextpm.Decoder) *DecoderChecker {
	return &DecoderChecker{decoder: decoder}
}

// Name 返回检查器名称
func (c *DecoderChecker) Name() string {
	return "decoder"
}

// Check 执行自检
func (c *DecoderChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	schemas := c.decoder.Registry().Schemas()
	if len(schemas) == 0 {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "no schemas registered",
			Latency: time.Since(start),
		}
	}

	commands := make([]string, 0, len(schemas))
	for _, sc := range schemas {
		if err := ctx.Err(); err != nil {
			return CheckResult{Status: StatusDegraded, Message: err.Error(), Latency: time.Since(start)}
		}
		frame := make([]byte, sc.FrameLength())
		frame[0] = sc.StartByte
		frame[1] = sc.Command
		frame[len(frame)-1] = nextpm.Checksum(frame, true)

		if _, err := c.decoder.Decode(frame); err != nil {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("self-test 0x%02x failed: %v", sc.Command, err),
				Latency: time.Since(start),
			}
		}
		commands = append(commands, fmt.Sprintf("0x%02x", sc.Command))
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{
			"schemas":  len(schemas),
			"commands": commands,
		},
		Latency: time.Since(start),
	}
}
