package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"market-api/internal/domains/user"
	"market-api/internal/shared/response"
)

// UserHandler - /api/auth/*
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// Register - POST /api/auth/register
// 201 {id, email} | 400 | 409
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err, "register failed")
		return
	}

	response.Created(c, res)
}

// Login - POST /api/auth/login
// {token} | 401 {"error":"invalid credentials"}
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err, "login failed")
		return
	}

	response.OK(c, res)
}

func (h *UserHandler) handleError(c *gin.Context, err error, fallback string) {
	for sentinel, status := range user.ErrorStatus {
		if errors.Is(err, sentinel) {
			msg := sentinel.Error()
			if status == http.StatusBadRequest {
				msg = err.Error()
			}
			response.Error(c, status, msg)
			return
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
	response.InternalServerError(c, fallback)
}
