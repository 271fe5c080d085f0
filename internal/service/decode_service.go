package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/nextpm-decoder/internal/metrics"
	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
	"github.com/taoyao-code/nextpm-decoder/internal/storage"
	"github.com/taoyao-code/nextpm-decoder/internal/storage/models"
)

var (
	// ErrInputTooLarge 原始文本超过 decoder.maxInputLen
	ErrInputTooLarge = errors.New("input too large")
	// ErrHistoryDisabled 未启用数据库时访问历史接口
	ErrHistoryDisabled = errors.New("decode history is disabled")
)

// ResultCache 解码结果缓存（Redis 实现见 storage/redis.ResultCache）
type ResultCache interface {
	Get(ctx context.Context, frameHex string) ([]byte, bool, error)
	Set(ctx context.Context, frameHex string, data []byte) error
}

// FieldResult 一个已解码字段
type FieldResult struct {
	Name    string       `json:"name"`
	Raw     uint16       `json:"raw"`
	Value   nextpm.Value `json:"value"`
	Display string       `json:"display"`
}

// DecodeResult 对外返回的解码结果
type DecodeResult struct {
	ID          string               `json:"id"`
	Hex         string               `json:"hex"`
	Command     string               `json:"command"`
	SchemaID    string               `json:"schema_id"`
	SchemaLabel string               `json:"schema_label"`
	Fields      []FieldResult        `json:"fields"`
	Status      *nextpm.StatusReport `json:"status,omitempty"`
	StatusText  string               `json:"status_text,omitempty"`
	Checksum    string               `json:"checksum"`
	DecodedAt   time.Time            `json:"decoded_at"`
	Cached      bool                 `json:"cached"`
}

// Options DecodeService 依赖；Cache/History/Metrics 可为空
type Options struct {
	Decoder     *nextpm.Decoder
	StrictHex   bool
	MaxInputLen int
	Cache       ResultCache
	History     storage.HistoryRepo
	Metrics     *metrics.AppMetrics
	Logger      *zap.Logger
}

// DecodeService 解码业务服务：归一化 → 缓存 → 核心解码 → 指标/历史
type DecodeService struct {
	decoder     *nextpm.Decoder
	normalize   func(string) ([]byte, error)
	maxInputLen int
	cache       ResultCache
	history     storage.HistoryRepo
	metrics     *metrics.AppMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewDecodeService 创建解码服务
func NewDecodeService(opts Options) *DecodeService {
	s := &DecodeService{
		decoder:     opts.Decoder,
		normalize:   nextpm.NormalizeHex,
		maxInputLen: opts.MaxInputLen,
		cache:       opts.Cache,
		history:     opts.History,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		now:         time.Now,
	}
	if s.decoder == nil {
		s.decoder = nextpm.NewDecoder(nil, nil)
	}
	if opts.StrictHex {
		s.normalize = nextpm.NormalizeHexStrict
	}
	if s.maxInputLen <= 0 {
		s.maxInputLen = 4096
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// HistoryEnabled 是否配置了历史存储
func (s *DecodeService) HistoryEnabled() bool { return s.history != nil }

// Decode 解码一段十六进制文本
func (s *DecodeService) Decode(ctx context.Context, text string) (*DecodeResult, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.DecodeDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if len(text) > s.maxInputLen {
		return nil, fmt.Errorf("%w: %d > %d chars", ErrInputTooLarge, len(text), s.maxInputLen)
	}

	raw, err := s.normalize(text)
	if err != nil {
		s.fail(ctx, text, nil, err)
		return nil, err
	}
	frameHex := nextpm.FormatHex(raw)

	if res, ok := s.fromCache(ctx, frameHex, raw); ok {
		res.ID = uuid.NewString()
		res.DecodedAt = start
		res.Cached = true
		s.countOK(raw[1])
		s.record(ctx, res, raw[1])
		return res, nil
	}

	frame, err := s.decoder.Decode(raw)
	if err != nil {
		s.fail(ctx, frameHex, raw, err)
		return nil, err
	}

	res := buildResult(frame, frameHex)
	res.ID = uuid.NewString()
	res.DecodedAt = start
	s.countOK(frame.Command)
	s.toCache(ctx, res)
	s.record(ctx, res, frame.Command)

	s.logger.Debug("frame decoded",
		zap.String("id", res.ID),
		zap.String("cmd", res.Command),
		zap.Int("fields", len(res.Fields)))
	return res, nil
}

// SchemaInfo 注册表中一个 schema 的描述
type SchemaInfo struct {
	ID            string      `json:"id"`
	Label         string      `json:"label"`
	StartByte     string      `json:"start_byte"`
	Command       string      `json:"command"`
	FrameLength   int         `json:"frame_length"`
	HasStatusByte bool        `json:"has_status_byte"`
	Fields        []FieldInfo `json:"fields"`
}

// FieldInfo 字段描述
type FieldInfo struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Unit  string  `json:"unit,omitempty"`
	Scale float64 `json:"scale"`
}

// Schemas 列出所有已注册 schema
func (s *DecodeService) Schemas() []SchemaInfo {
	all := s.decoder.Registry().Schemas()
	out := make([]SchemaInfo, 0, len(all))
	for _, sc := range all {
		info := SchemaInfo{
			ID:            sc.ID,
			Label:         sc.Label,
			StartByte:     fmt.Sprintf("0x%02x", sc.StartByte),
			Command:       fmt.Sprintf("0x%02x", sc.Command),
			FrameLength:   sc.FrameLength(),
			HasStatusByte: sc.HasStatusByte,
			Fields:        make([]FieldInfo, 0, len(sc.Payload)),
		}
		for _, f := range sc.Payload {
			info.Fields = append(info.Fields, FieldInfo{
				Name:  f.Name,
				Type:  f.Type.String(),
				Unit:  f.Unit,
				Scale: f.EffectiveScale(),
			})
		}
		out = append(out, info)
	}
	return out
}

// HistoryEntry 一条解码历史
type HistoryEntry struct {
	ID         string          `json:"id"`
	Hex        string          `json:"hex"`
	Command    string          `json:"command,omitempty"`
	SchemaID   string          `json:"schema_id,omitempty"`
	Success    bool            `json:"success"`
	ErrKind    string          `json:"error,omitempty"`
	ErrMessage string          `json:"message,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// History 分页查询解码历史；cmd 为 nil 时不过滤
func (s *DecodeService) History(ctx context.Context, cmd *byte, limit, offset int) ([]HistoryEntry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	var filter *int16
	if cmd != nil {
		c := int16(*cmd)
		filter = &c
	}
	recs, err := s.history.ListDecodes(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list decodes: %w", err)
	}
	out := make([]HistoryEntry, 0, len(recs))
	for i := range recs {
		out = append(out, toHistoryEntry(&recs[i]))
	}
	return out, nil
}

// Record 按 ID 查询一条历史，不存在时返回 storage.ErrNotFound
func (s *DecodeService) Record(ctx context.Context, id string) (*HistoryEntry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	rec, err := s.history.GetDecode(ctx, id)
	if err != nil {
		return nil, err
	}
	e := toHistoryEntry(rec)
	return &e, nil
}

func buildResult(fr *nextpm.Frame, frameHex string) *DecodeResult {
	res := &DecodeResult{
		Hex:         frameHex,
		Command:     fmt.Sprintf("0x%02x", fr.Command),
		SchemaID:    fr.Schema.ID,
		SchemaLabel: fr.Schema.Label,
		Fields:      make([]FieldResult, 0, len(fr.Fields)),
		Checksum:    fmt.Sprintf("0x%02x", fr.Checksum),
	}
	for _, fv := range fr.Fields {
		res.Fields = append(res.Fields, FieldResult{
			Name:    fv.Name,
			Raw:     fv.Raw,
			Value:   fv.Value,
			Display: fv.Value.String(),
		})
	}
	if fr.Status != nil {
		st := *fr.Status
		res.Status = &st
		res.StatusText = st.String()
	}
	return res
}

func (s *DecodeService) fromCache(ctx context.Context, frameHex string, raw []byte) (*DecodeResult, bool) {
	if s.cache == nil || len(raw) < nextpm.MinFrameLen {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, frameHex)
	if err != nil {
		s.logger.Warn("decode cache get failed", zap.String("hex", frameHex), zap.Error(err))
		return nil, false
	}
	if !ok {
		s.countCache("miss")
		return nil, false
	}
	var res DecodeResult
	if err := json.Unmarshal(b, &res); err != nil {
		s.logger.Warn("decode cache entry corrupt", zap.String("hex", frameHex), zap.Error(err))
		s.countCache("miss")
		return nil, false
	}
	// schema 文件变更后旧条目作废
	if sc, ok := s.decoder.Registry().Lookup(raw[1]); !ok || sc.ID != res.SchemaID {
		s.countCache("miss")
		return nil, false
	}
	// 状态位定义可能已变更，按当前解释器重新解释缓存的原始状态字节
	if res.Status != nil {
		rep := s.decoder.StatusInterpreter().Interpret(res.Status.Raw)
		res.Status = &rep
		res.StatusText = rep.String()
	}
	s.countCache("hit")
	return &res, true
}

func (s *DecodeService) toCache(ctx context.Context, res *DecodeResult) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		s.logger.Warn("marshal decode result failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, res.Hex, b); err != nil {
		s.logger.Warn("decode cache set failed", zap.String("hex", res.Hex), zap.Error(err))
	}
}

func (s *DecodeService) record(ctx context.Context, res *DecodeResult, cmdByte byte) {
	if s.history == nil {
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		s.logger.Warn("marshal decode result failed", zap.Error(err))
		return
	}
	cmd := int16(cmdByte)
	s.save(ctx, &models.DecodeRecord{
		ID:       res.ID,
		Hex:      res.Hex,
		Command:  &cmd,
		SchemaID: res.SchemaID,
		Success:  true,
		Result:   body,
	})
}

func (s *DecodeService) fail(ctx context.Context, hexOrText string, raw []byte, err error) {
	kind := "unknown"
	if de, ok := nextpm.AsDecodeError(err); ok {
		kind = de.Kind.String()
	}

	var cmd *int16
	known := false
	if len(raw) >= 2 {
		c := int16(raw[1])
		cmd = &c
		_, known = s.decoder.Registry().Lookup(raw[1])
	}
	if s.metrics != nil {
		label := "none"
		if cmd != nil {
			label = metrics.CmdLabel(byte(*cmd), known)
		}
		s.metrics.DecodeTotal.WithLabelValues(label, "error").Inc()
		s.metrics.DecodeErrorTotal.WithLabelValues(kind).Inc()
	}
	s.logger.Info("frame rejected", zap.String("kind", kind), zap.Int("len", len(raw)), zap.Error(err))

	if s.history == nil {
		return
	}
	s.save(ctx, &models.DecodeRecord{
		ID:         uuid.NewString(),
		Hex:        hexOrText,
		Command:    cmd,
		Success:    false,
		ErrKind:    kind,
		ErrMessage: err.Error(),
	})
}

func (s *DecodeService) save(ctx context.Context, rec *models.DecodeRecord) {
	if err := s.history.SaveDecode(ctx, rec); err != nil {
		if s.metrics != nil {
			s.metrics.HistoryWriteFails.Inc()
		}
		s.logger.Warn("save decode history failed", zap.String("id", rec.ID), zap.Error(err))
	}
}

func (s *DecodeService) countOK(cmd byte) {
	if s.metrics != nil {
		s.metrics.DecodeTotal.WithLabelValues(metrics.CmdLabel(cmd, true), "ok").Inc()
	}
}

func (s *DecodeService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.DecodeCacheTotal.WithLabelValues(result).Inc()
	}
}

func toHistoryEntry(rec *models.DecodeRecord) HistoryEntry {
	e := HistoryEntry{
		ID:         rec.ID,
		Hex:        rec.Hex,
		SchemaID:   rec.SchemaID,
		Success:    rec.Success,
		ErrKind:    rec.ErrKind,
		ErrMessage: rec.ErrMessage,
		CreatedAt:  rec.CreatedAt,
	}
	if rec.Command != nil {
		e.Command = fmt.Sprintf("0x%02x", *rec.Command)
	}
	if len(rec.Result) > 0 {
		e.Result = json.RawMessage(rec.Result)
	}
	return e
}
