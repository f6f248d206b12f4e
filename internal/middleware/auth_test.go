package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
)

func newAuthRouter(tokens services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		uid, _ := c.Get(CtxUserID)
		email, _ := c.Get(CtxEmail)
		c.JSON(http.StatusOK, gin.H{"uid": uid, "email": email})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour, "ManShanSpace", "ManShanSpaceUsers")
	expiredTokens := services.NewTokenService("test-secret", -time.Minute, "ManShanSpace", "ManShanSpaceUsers")
	r := newAuthRouter(tokens)

	valid, err := tokens.Issue(5, "u@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired, err := expiredTokens.Issue(5, "u@x.com")
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"no bearer prefix", valid, http.StatusUnauthorized},
		{"lowercase bearer", "bearer " + valid, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tc.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour, "ManShanSpace", "ManShanSpaceUsers")
	gin.SetMode(gin.TestMode)

	var gotUID int
	var gotEmail string
	r := gin.New()
	r.GET("/who", AuthMiddleware(tokens), func(c *gin.Context) {
		if v, ok := c.Get(CtxUserID); ok {
			gotUID = v.(int)
		}
		if v, ok := c.Get(CtxEmail); ok {
			gotEmail = v.(string)
		}
		c.Status(http.StatusOK)
	})

	token, err := tokens.Issue(9, "who@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotUID != 9 || gotEmail != "who@x.com" {
		t.Fatalf("identity = %d/%q, want 9/who@x.com", gotUID, gotEmail)
	}
}
