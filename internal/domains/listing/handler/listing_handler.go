package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"market-api/internal/domains/listing"
	"market-api/internal/shared/middleware"
	"market-api/internal/shared/response"
)

// Handler - HTTP handler cho /api/listings
type Handler struct {
	service    listing.Service
	searchMode listing.SearchMode
}

func NewHandler(service listing.Service, searchMode listing.SearchMode) *Handler {
	return &Handler{
		service:    service,
		searchMode: searchMode,
	}
}

// ListListings - GET /api/listings
// Query: q, category, make, model, year, location, priceMin, priceMax, part, page, limit, sort, order
func (h *Handler) ListListings(c *gin.Context) {
	q, err := listing.ParseListQuery(c.Request.URL.Query(), h.searchMode)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, result)
}

// GetListing - GET /api/listings/:id
func (h *Handler) GetListing(c *gin.Context) {
	l, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, l)
}

// CreateListing - POST /api/listings (auth)
func (h *Handler) CreateListing(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req listing.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	l, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, l)
}

// UpdateListing - PUT /api/listings/:id (auth + owner)
func (h *Handler) UpdateListing(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req listing.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	l, err := h.service.Update(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, l)
}

// DeleteListing - DELETE /api/listings/:id (auth + owner)
func (h *Handler) DeleteListing(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, gin.H{"ok": true})
}

// handleError map lỗi domain -> status; lỗi không biết -> 500 với message chung
func (h *Handler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		response.BadRequest(c, verrs.Error())
		return
	}

	for sentinel, status := range listing.ErrorStatus {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			if status == http.StatusNotFound {
				msg = sentinel.Error()
			}
			response.Error(c, status, msg)
			return
		}
	}

	log.Error().Err(err).
		Str("path", c.FullPath()).
		Str("method", c.Request.Method).
		Msg("listing request failed")
	response.InternalServerError(c, "internal server error")
}
