package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRecovery_RendersInternalError(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestTrace_EchoesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Trace())
	r.GET("/", func(c *gin.Context) {
		tc := appctx.GetTrace(c.Request.Context())
		require.NotNil(t, tc)
		c.String(http.StatusOK, tc.RequestID)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w, _ := serve(r, req)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-42", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

type staticValidator struct {
	user *appctx.UserContext
}

func (v staticValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, apperror.NewUnauthorized("bad token")
	}
	return v.user, nil
}

func TestAuthAndRequireRoles(t *testing.T) {
	tests := []struct {
		name   string
		header string
		roles  []string
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic good", nil, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", nil, http.StatusUnauthorized},
		{"role missing", "Bearer good", []string{appctx.RoleAuditor}, http.StatusForbidden},
		{"role present", "Bearer good", []string{appctx.RoleCashier}, http.StatusOK},
		{"super admin", "Bearer good", []string{appctx.RoleSuperAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(), Auth(staticValidator{user: &appctx.UserContext{UserID: "u1", Roles: tt.roles}}))
			r.POST("/sales", RequireRoles(appctx.RoleAdmin, appctx.RoleCashier), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/sales", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w, _ := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
