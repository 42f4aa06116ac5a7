package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"market-api/internal/domains/user"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Register(ctx context.Context, req user.RegisterRequest) (*user.RegisterResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*user.RegisterResponse)
	return res, args.Error(1)
}

func (m *mockService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*user.LoginResponse)
	return res, args.Error(1)
}

func newRouter(svc user.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc)
	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterCreated(t *testing.T) {
	svc := new(mockService)
	svc.On("Register", mock.Anything, mock.Anything).Return(&user.RegisterResponse{ID: "u1", Email: "a@b.co"}, nil)

	w := post(newRouter(svc), "/api/auth/register", `{"email":"a@b.co","password":"password1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"u1","email":"a@b.co"}`, w.Body.String())
}

func TestRegisterConflict(t *testing.T) {
	svc := new(mockService)
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, user.ErrEmailAlreadyExists)

	w := post(newRouter(svc), "/api/auth/register", `{"email":"a@b.co","password":"password1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"email already in use"}`, w.Body.String())
}

func TestRegisterMalformedBody(t *testing.T) {
	svc := new(mockService)

	w := post(newRouter(svc), "/api/auth/register", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestLoginInvalidCredentialsBody(t *testing.T) {
	svc := new(mockService)
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, user.ErrInvalidCredentials)

	w := post(newRouter(svc), "/api/auth/login", `{"email":"a@b.co","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
}

func TestLoginToken(t *testing.T) {
	svc := new(mockService)
	svc.On("Login", mock.Anything, user.LoginRequest{Email: "a@b.co", Password: "pw"}).Return(&user.LoginResponse{Token: "tkn"}, nil)

	w := post(newRouter(svc), "/api/auth/login", `{"email":"a@b.co","password":"pw"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"tkn"}`, w.Body.String())
}

func TestUnexpectedErrorIsGeneric500(t *testing.T) {
	svc := new(mockService)
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused to 10.0.0.5"))

	w := post(newRouter(svc), "/api/auth/login", `{"email":"a@b.co","password":"pw"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
