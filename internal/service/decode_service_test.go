package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/nextpm-decoder/internal/metrics"
	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
	"github.com/taoyao-code/nextpm-decoder/internal/storage"
	"github.com/taoyao-code/nextpm-decoder/internal/storage/models"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, k string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	b, ok := c.data[k]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, k string, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[k] = b
	return nil
}

type memHistory struct {
	mu   sync.Mutex
	recs []models.DecodeRecord
	err  error
}

func (h *memHistory) SaveDecode(_ context.Context, rec *models.DecodeRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.recs = append(h.recs, *rec)
	return nil
}

func (h *memHistory) GetDecode(_ context.Context, id string) (*models.DecodeRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.recs {
		if h.recs[i].ID == id {
			r := h.recs[i]
			return &r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (h *memHistory) ListDecodes(_ context.Context, cmd *int16, limit, offset int) ([]models.DecodeRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.DecodeRecord
	for i := len(h.recs) - 1; i >= 0; i-- {
		r := h.recs[i]
		if cmd != nil && (r.Command == nil || *r.Command != *cmd) {
			continue
		}
		out = append(out, r)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func newTestService(t *testing.T, opts Options) (*DecodeService, *metrics.AppMetrics) {
	t.Helper()
	m := metrics.NewAppMetrics(prometheus.NewRegistry())
	opts.Metrics = m
	return NewDecodeService(opts), m
}

func TestDecodeService_Decode(t *testing.T) {
	svc, m := newTestService(t, Options{})

	res, err := svc.Decode(context.Background(), "0x81 0x17 0x00 0x7B 0x00 0xF0 0x01 0x2C 0xD0")
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "81 17 00 7B 00 F0 01 2C D0", res.Hex)
	assert.Equal(t, "0x17", res.Command)
	assert.Equal(t, "nextpm@0x17@1.0.0", res.SchemaID)
	assert.Equal(t, "0xd0", res.Checksum)
	assert.Nil(t, res.Status)
	require.Len(t, res.Fields, 3)
	assert.Equal(t, "PM1", res.Fields[0].Name)
	assert.Equal(t, "12.3 µg/m³", res.Fields[0].Display)
	assert.False(t, res.Cached)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeTotal.WithLabelValues("0x17", "ok")))
}

func TestDecodeService_Status(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	res, err := svc.Decode(context.Background(), "81 16 05 64")
	require.NoError(t, err)
	require.NotNil(t, res.Status)
	assert.Equal(t, []string{"Default/Sleep", "Not Ready"}, res.Status.Flags)
	assert.Equal(t, "0x05 (Default/Sleep, Not Ready)", res.StatusText)
}

func TestDecodeService_Errors(t *testing.T) {
	hist := &memHistory{}
	svc, m := newTestService(t, Options{History: hist, MaxInputLen: 64})
	ctx := context.Background()

	_, err := svc.Decode(ctx, "81 16 00 6A")
	assert.True(t, errors.Is(err, nextpm.ErrChecksumMismatch))

	_, err = svc.Decode(ctx, "82 16 00 68")
	assert.True(t, errors.Is(err, nextpm.ErrInvalidStartByte))

	_, err = svc.Decode(ctx, "81 1")
	assert.True(t, errors.Is(err, nextpm.ErrOddLength))

	_, err = svc.Decode(ctx, string(make([]byte, 65)))
	assert.True(t, errors.Is(err, ErrInputTooLarge))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrorTotal.WithLabelValues("checksum_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrorTotal.WithLabelValues("odd_length")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DecodeTotal.WithLabelValues("0x16", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeTotal.WithLabelValues("none", "error")))

	// 超长输入在归一化之前被拒绝，不入历史
	require.Len(t, hist.recs, 3)
	first := hist.recs[0]
	assert.False(t, first.Success)
	assert.Equal(t, "checksum_mismatch", first.ErrKind)
	assert.Equal(t, "81 16 00 6A", first.Hex)
	require.NotNil(t, first.Command)
	assert.Equal(t, int16(0x16), *first.Command)
	assert.Nil(t, hist.recs[2].Command)
}

func TestDecodeService_StrictHex(t *testing.T) {
	lenient, _ := newTestService(t, Options{})
	_, err := lenient.Decode(context.Background(), "81 16 00 6g9")
	assert.NoError(t, err)

	strict, _ := newTestService(t, Options{StrictHex: true})
	_, err = strict.Decode(context.Background(), "81 16 00 6g9")
	assert.True(t, errors.Is(err, nextpm.ErrInvalidCharacter))
}

func TestDecodeService_Cache(t *testing.T) {
	cache := newMemCache()
	hist := &memHistory{}
	svc, m := newTestService(t, Options{Cache: cache, History: hist})
	ctx := context.Background()

	first, err := svc.Decode(ctx, "81 17 00 7B 00 F0 01 2C D0")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Contains(t, cache.data, "81 17 00 7B 00 F0 01 2C D0")

	second, err := svc.Decode(ctx, "0x81,0x17,0x00,0x7b,0x00,0xf0,0x01,0x2c,0xd0")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, second.Fields, 3)
	assert.Equal(t, first.Fields[2].Value.Float(), second.Fields[2].Value.Float())
	assert.Equal(t, "µg/m³", second.Fields[2].Value.Unit())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeCacheTotal.WithLabelValues("miss")))
	assert.Len(t, hist.recs, 2)
}

func TestDecodeService_CacheFailureIgnored(t *testing.T) {
	cache := newMemCache()
	cache.err = errors.New("redis down")
	hist := &memHistory{err: errors.New("db down")}
	svc, m := newTestService(t, Options{Cache: cache, History: hist})

	res, err := svc.Decode(context.Background(), "81 16 00 69")
	require.NoError(t, err)
	assert.True(t, res.Status.OK)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryWriteFails))
}

func TestDecodeService_StaleCacheEntry(t *testing.T) {
	cache := newMemCache()
	cache.data["81 16 00 69"] = []byte(`{"schema_id":"nextpm@0x16@0.9.0","fields":[]}`)
	svc, _ := newTestService(t, Options{Cache: cache})

	res, err := svc.Decode(context.Background(), "81 16 00 69")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "nextpm@0x16@1.0.0", res.SchemaID)
}

func TestDecodeService_CachedStatusFollowsInterpreter(t *testing.T) {
	cache := newMemCache()
	ctx := context.Background()

	before, _ := newTestService(t, Options{Cache: cache})
	res, err := before.Decode(ctx, "81 16 10 59")
	require.NoError(t, err)
	assert.Equal(t, "0x10 (OK)", res.StatusText)

	si, err := nextpm.NewStatusInterpreter(nextpm.StatusBit{Mask: 0x10, Label: "Laser Error"})
	require.NoError(t, err)
	after, _ := newTestService(t, Options{Cache: cache, Decoder: nextpm.NewDecoder(nil, si)})

	res, err = after.Decode(ctx, "81 16 10 59")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	require.NotNil(t, res.Status)
	assert.False(t, res.Status.OK)
	assert.Equal(t, []string{"Laser Error"}, res.Status.Flags)
	assert.Equal(t, "0x10 (Laser Error)", res.StatusText)
}

func TestDecodeService_History(t *testing.T) {
	hist := &memHistory{}
	svc, _ := newTestService(t, Options{History: hist})
	ctx := context.Background()

	ok, err := svc.Decode(ctx, "81 16 00 69")
	require.NoError(t, err)
	_, _ = svc.Decode(ctx, "81 17")

	all, err := svc.History(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].Success)
	assert.Equal(t, "frame_too_short", all[0].ErrKind)
	assert.True(t, all[1].Success)

	cmd := byte(0x16)
	only16, err := svc.History(ctx, &cmd, 10, 0)
	require.NoError(t, err)
	require.Len(t, only16, 1)
	assert.Equal(t, "0x16", only16[0].Command)

	entry, err := svc.Record(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, "81 16 00 69", entry.Hex)
	assert.Contains(t, string(entry.Result), `"checksum":"0x69"`)

	_, err = svc.Record(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDecodeService_HistoryDisabled(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	assert.False(t, svc.HistoryEnabled())
	_, err := svc.History(context.Background(), nil, 10, 0)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = svc.Record(context.Background(), "x")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestDecodeService_Schemas(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	all := svc.Schemas()
	require.Len(t, all, 3)
	assert.Equal(t, "0x16", all[0].Command)
	assert.Equal(t, 4, all[0].FrameLength)
	assert.Equal(t, "0x17", all[1].Command)
	assert.Equal(t, 0.1, all[1].Fields[0].Scale)
	assert.Equal(t, "uint16", all[1].Fields[0].Type)
	assert.Equal(t, 13, all[2].FrameLength)
}
