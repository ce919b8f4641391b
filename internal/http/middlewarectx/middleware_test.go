package middlewarectx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/forexhub/signals-platform/internal/http/response"
	"github.com/forexhub/signals-platform/internal/models"
)

type TokenValidatorMock struct{ mock.Mock }

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (*models.User, bool, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

type AccessCheckerMock struct{ mock.Mock }

func (m *AccessCheckerMock) CheckAccess(ctx context.Context, userUID string, isAdmin bool) (models.AccessDecision, error) {
	args := m.Called(ctx, userUID, isAdmin)
	return args.Get(0).(models.AccessDecision), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddleware(t *testing.T) {
	user := &models.User{UID: "uid-1", Username: "trader", Role: models.RoleUser}

	cases := []struct {
		name       string
		authHeader string
		setupMock  func(v *TokenValidatorMock)
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "valid token",
			authHeader: "Bearer good-token",
			setupMock: func(v *TokenValidatorMock) {
				v.On("ValidateToken", mock.Anything, "good-token").Return(user, true, nil)
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "missing header",
			authHeader: "",
			setupMock:  func(*TokenValidatorMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no bearer prefix",
			authHeader: "good-token",
			setupMock:  func(*TokenValidatorMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad-token",
			setupMock: func(v *TokenValidatorMock) {
				v.On("ValidateToken", mock.Anything, "bad-token").
					Return(nil, false, errors.New("token is expired"))
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validator := new(TokenValidatorMock)
			tc.setupMock(validator)

			var nextCalled bool
			handler := JWTMiddleware(validator, newNoopLogger())(okHandler(&nextCalled))

			req := httptest.NewRequest(http.MethodGet, "/user/subscription-status", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantNext, nextCalled)
			validator.AssertExpectations(t)
		})
	}
}

func TestJWTMiddleware_ContextValues(t *testing.T) {
	validator := new(TokenValidatorMock)
	validator.On("ValidateToken", mock.Anything, "good-token").
		Return(&models.User{UID: "uid-1", Username: "trader", Role: models.RoleAdmin}, true, nil)

	var gotUID string
	var gotAdmin bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUID, _ = r.Context().Value(UserUID).(string)
		gotAdmin = IsAdmin(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	JWTMiddleware(validator, newNoopLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "uid-1", gotUID)
	assert.True(t, gotAdmin)
}

func TestAccessGate(t *testing.T) {
	cases := []struct {
		name       string
		ctxUID     string
		ctxRole    string
		setupMock  func(c *AccessCheckerMock)
		wantStatus int
		wantNext   bool
		wantReason string
	}{
		{
			name:    "active subscription passes",
			ctxUID:  "uid-1",
			ctxRole: models.RoleUser,
			setupMock: func(c *AccessCheckerMock) {
				c.On("CheckAccess", mock.Anything, "uid-1", false).
					Return(models.AccessDecision{HasAccess: true, Reason: models.ReasonActiveSubscription}, nil)
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:    "admin passes",
			ctxUID:  "uid-admin",
			ctxRole: models.RoleAdmin,
			setupMock: func(c *AccessCheckerMock) {
				c.On("CheckAccess", mock.Anything, "uid-admin", true).
					Return(models.AccessDecision{HasAccess: true, Reason: models.ReasonAdmin}, nil)
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:    "expired gets 403 with reason",
			ctxUID:  "uid-1",
			ctxRole: models.RoleUser,
			setupMock: func(c *AccessCheckerMock) {
				c.On("CheckAccess", mock.Anything, "uid-1", false).
					Return(models.AccessDecision{HasAccess: false, Reason: models.ReasonExpired}, nil)
			},
			wantStatus: http.StatusForbidden,
			wantReason: "expired",
		},
		{
			name:    "no subscription gets 403 with reason",
			ctxUID:  "uid-1",
			ctxRole: models.RoleUser,
			setupMock: func(c *AccessCheckerMock) {
				c.On("CheckAccess", mock.Anything, "uid-1", false).
					Return(models.AccessDecision{HasAccess: false, Reason: models.ReasonNoSubscription}, nil)
			},
			wantStatus: http.StatusForbidden,
			wantReason: "no-subscription",
		},
		{
			name:       "missing uid gets 401",
			ctxUID:     "",
			setupMock:  func(*AccessCheckerMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "storage failure is fail-closed",
			ctxUID:  "uid-1",
			ctxRole: models.RoleUser,
			setupMock: func(c *AccessCheckerMock) {
				c.On("CheckAccess", mock.Anything, "uid-1", false).
					Return(models.AccessDecision{}, errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checker := new(AccessCheckerMock)
			tc.setupMock(checker)

			var nextCalled bool
			handler := AccessGate(checker, newNoopLogger())(okHandler(&nextCalled))

			req := httptest.NewRequest(http.MethodGet, "/signals", nil)
			ctx := req.Context()
			if tc.ctxUID != "" {
				ctx = context.WithValue(ctx, UserUID, tc.ctxUID)
				ctx = context.WithValue(ctx, Role, tc.ctxRole)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req.WithContext(ctx))

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantNext, nextCalled)

			if tc.wantReason != "" {
				var body response.ErrorResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.Equal(t, response.StatusError, body.Status)
				assert.Equal(t, tc.wantReason, body.Reason)
			}
			checker.AssertExpectations(t)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	cases := []struct {
		name       string
		role       string
		wantStatus int
		wantNext   bool
	}{
		{name: "admin passes", role: models.RoleAdmin, wantStatus: http.StatusOK, wantNext: true},
		{name: "user rejected", role: models.RoleUser, wantStatus: http.StatusForbidden},
		{name: "no role rejected", role: "", wantStatus: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var nextCalled bool
			handler := AdminOnly(newNoopLogger())(okHandler(&nextCalled))

			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tc.role != "" {
				req = req.WithContext(context.WithValue(req.Context(), Role, tc.role))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantNext, nextCalled)
		})
	}
}
