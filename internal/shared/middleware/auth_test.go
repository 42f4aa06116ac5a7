package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-api/pkg/jwt"
)

func newAuthRouter(m *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(m), func(c *gin.Context) {
		ctxID, _ := UserIDFromContext(c.Request.Context())
		ginID, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"ctx": ctxID, "gin": ginID})
	})
	return r
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsWith401(t *testing.T) {
	m := jwt.NewManager("secret", time.Hour)
	other, err := jwt.NewManager("other", time.Hour).GenerateAccessToken("u1", "")
	require.NoError(t, err)
	expired, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{
		Type: "access",
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	valid, err := m.GenerateAccessToken("u1", "")
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":  "",
		"basic scheme":    "Basic dXNlcjpwYXNz",
		"bearer no token": "Bearer ",
		"token no scheme": valid,
		"wrong signature": "Bearer " + other,
		"garbage":         "Bearer not.a.jwt",
		"expired":         "Bearer " + expired,
	}

	r := newAuthRouter(m)
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := doGet(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAuthMiddlewareSetsUserID(t *testing.T) {
	m := jwt.NewManager("secret", time.Hour)
	token, err := m.GenerateAccessToken("user-42", "a@b.com")
	require.NoError(t, err)

	w := doGet(newAuthRouter(m), "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "user-42", body["ctx"])
	assert.Equal(t, "user-42", body["gin"])
}
