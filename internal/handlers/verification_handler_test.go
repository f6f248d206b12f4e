package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
)

var errSMTP = errors.New("smtp down")

type stubCodes struct {
	createErr  error
	verifyErr  error
	sentIDs    []int64
	lastVerify [2]string
}

func (s *stubCodes) CreateCode(email, ip, userAgent string) (*models.VerificationCode, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.VerificationCode{
		ID:        1,
		Email:     email,
		Code:      "123456",
		Status:    models.CodeStatusPending,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}, nil
}

func (s *stubCodes) MarkSent(id int64) error {
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubCodes) Verify(email, code, ip string) error {
	s.lastVerify = [2]string{email, code}
	return s.verifyErr
}

func (s *stubCodes) MarkUsed(email, code string) (bool, error) { return true, nil }

type stubEmails struct {
	sent    []string
	sendErr error
}

func (s *stubEmails) SendRegisterCode(email, code string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, "register:"+email+":"+code)
	return nil
}

func (s *stubEmails) SendPasswordResetCode(email, code string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, "reset:"+email+":"+code)
	return nil
}

func (s *stubEmails) SendTestEmail(email string) error { return s.sendErr }

func newVerifyRouter(registerCodes, resetCodes services.VerificationService, emails services.EmailService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewVerificationHandler(registerCodes, resetCodes, emails)
	r.POST("/api/verify/send-code", h.SendCode)
	r.POST("/api/verify/check-code", h.CheckCode)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSendCode(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]string
		createErr  error
		sendErr    error
		wantStatus int
		wantSent   int
		wantMarked int
	}{
		{
			name:       "register code sent",
			payload:    map[string]string{"email": "u@x.com", "type": "register"},
			wantStatus: http.StatusOK,
			wantSent:   1,
			wantMarked: 1,
		},
		{
			name:       "reset code sent",
			payload:    map[string]string{"email": "u@x.com", "type": "reset_password"},
			wantStatus: http.StatusOK,
			wantSent:   1,
			wantMarked: 1,
		},
		{
			name:       "unsupported type",
			payload:    map[string]string{"email": "u@x.com", "type": "magic"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad email",
			payload:    map[string]string{"email": "not-an-email", "type": "register"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "code already active",
			payload:    map[string]string{"email": "u@x.com", "type": "register"},
			createErr:  services.ErrCodeActive,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "mailer down",
			payload:    map[string]string{"email": "u@x.com", "type": "register"},
			sendErr:    errSMTP,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			registerCodes := &stubCodes{createErr: tc.createErr}
			resetCodes := &stubCodes{createErr: tc.createErr}
			emails := &stubEmails{sendErr: tc.sendErr}
			r := newVerifyRouter(registerCodes, resetCodes, emails)

			rr := postJSON(t, r, "/api/verify/send-code", tc.payload)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tc.wantStatus, rr.Body.String())
			}
			if got := len(emails.sent); got != tc.wantSent {
				t.Fatalf("emails sent = %d, want %d", got, tc.wantSent)
			}
			marked := len(registerCodes.sentIDs) + len(resetCodes.sentIDs)
			if marked != tc.wantMarked {
				t.Fatalf("marked sent = %d, want %d", marked, tc.wantMarked)
			}
		})
	}
}

func TestCheckCode(t *testing.T) {
	tests := []struct {
		name       string
		verifyErr  error
		wantStatus int
	}{
		{"valid code", nil, http.StatusOK},
		{"not found", services.ErrCodeNotFound, http.StatusBadRequest},
		{"mismatch", services.ErrCodeMismatch, http.StatusBadRequest},
		{"exhausted", services.ErrCodeExhausted, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			registerCodes := &stubCodes{verifyErr: tc.verifyErr}
			r := newVerifyRouter(registerCodes, &stubCodes{}, &stubEmails{})

			rr := postJSON(t, r, "/api/verify/check-code", map[string]string{
				"email": "u@x.com", "code": "123456", "type": "register",
			})
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tc.wantStatus, rr.Body.String())
			}
			if registerCodes.lastVerify != [2]string{"u@x.com", "123456"} {
				t.Fatalf("verify called with %v", registerCodes.lastVerify)
			}
		})
	}
}
