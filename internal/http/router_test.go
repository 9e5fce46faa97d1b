package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"scriptvault/internal/ratelimit"
	"scriptvault/internal/vault/mocks"
)

func newTestRouter(t *testing.T, svc *mocks.MockService) http.Handler {
	t.Helper()
	router, err := NewRouter(&Deps{
		Service:        svc,
		Limiter:        ratelimit.New(time.Minute, 100),
		AllowedClients: []string{"Roblox", "HttpGet"},
	})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router
}

func TestNewRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newTestRouter(t, mocks.NewMockService(ctrl))
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().CountScripts(gomock.Any()).Return(0, nil).AnyTimes()
	router := newTestRouter(t, svc)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "GET root serves index page",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /generate exists",
			method:     http.MethodPost,
			path:       "/generate",
			wantStatus: http.StatusBadRequest, // Bad request due to empty body, but route exists
		},
		{
			name:       "POST /my-scripts exists",
			method:     http.MethodPost,
			path:       "/my-scripts",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET /health exists",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /script.lua without allowed client",
			method:     http.MethodGet,
			path:       "/script.lua?id=abc",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_UnknownRouteRedirectsHome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newTestRouter(t, mocks.NewMockService(ctrl))

	req := httptest.NewRequest(http.MethodGet, "/no/such/page", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("Router unknown route status = %v, want %v", w.Code, http.StatusFound)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Router unknown route Location = %q, want /", loc)
	}
}

func TestRouter_AllowedClientFetchesScript(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().FetchScript(gomock.Any(), "abc").Return("print(1)", nil)
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/script.lua?id=abc", nil)
	req.Header.Set("User-Agent", "Roblox/WinInet")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Router GET /script.lua status = %v, want %v", w.Code, http.StatusOK)
	}
	if w.Body.String() != "print(1)" {
		t.Errorf("Router GET /script.lua body = %q, want script body", w.Body.String())
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newTestRouter(t, mocks.NewMockService(ctrl))

	req := httptest.NewRequest(http.MethodPost, "/my-scripts", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}

func TestRouter_GenerateIsRateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	router, err := NewRouter(&Deps{
		Service:        svc,
		Limiter:        ratelimit.New(time.Minute, 1),
		AllowedClients: []string{"Roblox"},
	})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	// First request consumes the budget (fails validation, still counted).
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusTooManyRequests {
		t.Fatalf("first request already limited, status = %v", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/generate", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %v, want %v", w.Code, http.StatusTooManyRequests)
	}
}
