package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
	"github.com/taoyao-code/nextpm-decoder/internal/service"
	"github.com/taoyao-code/nextpm-decoder/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// DecodeHandler 解码API处理器
type DecodeHandler struct {
	svc    *service.DecodeService
	logger *zap.Logger
}

// NewDecodeHandler 创建解码API处理器
func NewDecodeHandler(svc *service.DecodeService, logger *zap.Logger) *DecodeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecodeHandler{svc: svc, logger: logger}
}

// DecodeRequest 解码请求；hex 为空串时按零字节帧处理（frame_too_short）
type DecodeRequest struct {
	Hex *string `json:"hex"`
}

// ErrorResponse 解码失败响应
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
	Position *int   `json:"position,omitempty"`
}

// Decode 解码一帧
// POST /api/v1/frames/decode {"hex": "81 16 00 69"}
func (h *DecodeHandler) Decode(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if req.Hex == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "missing field: hex"})
		return
	}

	res, err := h.svc.Decode(c.Request.Context(), *req.Hex)
	if err != nil {
		h.writeDecodeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListSchemas 列出支持的命令
// GET /api/v1/schemas
func (h *DecodeHandler) ListSchemas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schemas": h.svc.Schemas()})
}

// ListDecodes 分页查询解码历史
// GET /api/v1/decodes?limit=50&offset=0&command=0x17
func (h *DecodeHandler) ListDecodes(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var cmd *byte
	if v := c.Query("command"); v != "" {
		n, err := strconv.ParseUint(v, 0, 8)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid command: " + v})
			return
		}
		b := byte(n)
		cmd = &b
	}

	list, err := h.svc.History(c.Request.Context(), cmd, limit, offset)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decodes": list, "limit": limit, "offset": offset})
}

// GetDecode 查询单条解码历史
// GET /api/v1/decodes/:id
func (h *DecodeHandler) GetDecode(c *gin.Context) {
	entry, err := h.svc.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *DecodeHandler) writeDecodeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInputTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "input_too_large", Message: err.Error()})
		return
	}
	de, ok := nextpm.AsDecodeError(err)
	if !ok {
		h.logger.Error("decode failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: err.Error()})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, errorResponse(de))
}

func (h *DecodeHandler) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "history_disabled", Message: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	default:
		h.logger.Error("history query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: err.Error()})
	}
}

// errorResponse 按错误类型填充 expected/got
func errorResponse(de *nextpm.DecodeError) ErrorResponse {
	resp := ErrorResponse{Error: de.Kind.String(), Message: de.Error()}
	switch de.Kind {
	case nextpm.KindInvalidStartByte, nextpm.KindChecksumMismatch:
		resp.Expected = fmt.Sprintf("0x%02x", de.Expected)
		resp.Got = fmt.Sprintf("0x%02x", de.Got)
	case nextpm.KindFrameTooShort, nextpm.KindUnexpectedLength:
		resp.Expected = strconv.Itoa(de.Expected)
		resp.Got = strconv.Itoa(de.Got)
	case nextpm.KindUnknownCommand:
		resp.Got = fmt.Sprintf("0x%02x", de.Command)
	case nextpm.KindInvalidCharacter:
		pos := de.Pos
		resp.Got = string(de.Char)
		resp.Position = &pos
	}
	return resp
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
