package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"market-api/internal/domains/upload"
	"market-api/internal/infrastructure/storage"
	"market-api/internal/shared/middleware"
	"market-api/internal/shared/response"
)

// UploadHandler - /api/s3/*
type UploadHandler struct {
	service upload.Service
}

func NewUploadHandler(service upload.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

// Presign - POST /api/s3/presign {filename, contentType, size} -> {url, key, expiresIn}
func (h *UploadHandler) Presign(c *gin.Context) {
	var req upload.PresignRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.service.Presign(c.Request.Context(), callerID(c), req)
	if err != nil {
		h.handleError(c, err, "presign failed")
		return
	}
	response.OK(c, res)
}

// ViewURL - POST /api/s3/view-url {key} -> {url}
func (h *UploadHandler) ViewURL(c *gin.Context) {
	var req upload.KeyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.service.ViewURL(c.Request.Context(), callerID(c), req.Key)
	if err != nil {
		h.handleError(c, err, "view-url failed")
		return
	}
	response.OK(c, res)
}

// List - POST /api/s3/list {prefix, startAfter, limit} -> {keys, next}
func (h *UploadHandler) List(c *gin.Context) {
	var req upload.ListRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.service.List(c.Request.Context(), callerID(c), req)
	if err != nil {
		h.handleError(c, err, "list failed")
		return
	}
	response.OK(c, res)
}

// Clear - POST /api/s3/clear {prefix} -> {deleted}
func (h *UploadHandler) Clear(c *gin.Context) {
	var req upload.ClearRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.service.Clear(c.Request.Context(), callerID(c), req)
	if err != nil {
		h.handleError(c, err, "clear failed")
		return
	}
	response.OK(c, res)
}

// Delete - POST /api/s3/delete {key} -> {url} | {ok, key}
func (h *UploadHandler) Delete(c *gin.Context) {
	var req upload.KeyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.service.Delete(c.Request.Context(), callerID(c), req.Key)
	if err != nil {
		h.handleError(c, err, "delete failed")
		return
	}
	response.OK(c, res)
}

// ProxyImage - GET /api/s3/proxy-image?key= stream object về client
func (h *UploadHandler) ProxyImage(c *gin.Context) {
	obj, err := h.service.Open(c.Request.Context(), callerID(c), c.Query("key"))
	if err != nil {
		h.handleError(c, err, "proxy-image failed")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=60")
	if obj.Size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, obj.Body); err != nil {
		log.Warn().Err(err).Msg("proxy-image stream interrupted")
	}
}

// ============================================
// HELPERS
// ============================================

func callerID(c *gin.Context) string {
	id, _ := middleware.CurrentUserID(c)
	return id
}

// bindOptionalJSON: body rỗng được coi như {}; JSON hỏng -> 400
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body")
		return false
	}
	return true
}

// handleError: lỗi domain -> status của nó; lỗi store có HTTP status -> trả nguyên status + message
func (h *UploadHandler) handleError(c *gin.Context, err error, fallback string) {
	for sentinel, status := range upload.ErrorStatus {
		if errors.Is(err, sentinel) {
			response.Error(c, status, err.Error())
			return
		}
	}

	if status, msg, ok := storage.StatusFromError(err); ok {
		log.Warn().Err(err).Int("status", status).Msg(fallback)
		response.Error(c, status, msg)
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
	response.InternalServerError(c, fallback)
}
