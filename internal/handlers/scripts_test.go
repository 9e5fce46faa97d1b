package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"scriptvault/internal/storage"
	"scriptvault/internal/vault"
	"scriptvault/internal/vault/mocks"
)

const testOwner = "user_0123456789"

// newRouter mounts the handler on the real route tree so chi URL
// params resolve in tests.
func newRouter(h *ScriptsHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/generate", h.Generate)
	r.Get("/script.lua", h.Fetch)
	r.Post("/my-scripts", h.List)
	r.Post("/my-scripts/{id}", h.Update)
	r.Delete("/my-scripts/{id}", h.Delete)
	return r
}

func jsonBody(t *testing.T, payload any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return bytes.NewReader(data)
}

func TestGenerate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	router := newRouter(NewScriptsHandler(svc))

	rec := &storage.ScriptRecord{
		ID:      "abcdefabcdefabcdefabcdefabcdefab",
		OwnerID: testOwner,
		Body:    "print(1)",
	}
	svc.EXPECT().
		CreateScript(gomock.Any(), testOwner, "print(1)").
		Return(rec, nil)

	req := httptest.NewRequest(http.MethodPost, "http://vault.test/generate",
		jsonBody(t, GenerateRequest{Script: "print(1)", UserID: testOwner}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Generate status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp GenerateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != rec.ID {
		t.Errorf("response ID = %q, want %q", resp.ID, rec.ID)
	}
	want := `loadstring(game:HttpGet("http://vault.test/script.lua?id=` + rec.ID + `"))()`
	if resp.Loadstring != want {
		t.Errorf("loadstring = %q, want %q", resp.Loadstring, want)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"validation", &vault.ValidationError{Field: "script", Message: "script cannot be empty"}, http.StatusBadRequest},
		{"owner limit", &vault.LimitError{Max: 50}, http.StatusBadRequest},
		{"backend failure", vault.ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockService(ctrl)
			svc.EXPECT().
				CreateScript(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, tt.svcErr)
			router := newRouter(NewScriptsHandler(svc))

			req := httptest.NewRequest(http.MethodPost, "/generate",
				jsonBody(t, GenerateRequest{Script: "x", UserID: testOwner}))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Generate status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if resp.Error == "" {
				t.Error("error response has empty message")
			}
		})
	}
}

func TestGenerateDuplicateReturnsExistingLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		CreateScript(gomock.Any(), testOwner, "print(1)").
		Return(nil, &vault.DuplicateError{ExistingID: "1234567890abcdef1234567890abcdef"})
	router := newRouter(NewScriptsHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "http://vault.test/generate",
		jsonBody(t, GenerateRequest{Script: "print(1)", UserID: testOwner}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Generate duplicate status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var resp DuplicateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != "1234567890abcdef1234567890abcdef" {
		t.Errorf("duplicate response ID = %q, want existing ID", resp.ID)
	}
	if !strings.Contains(resp.Loadstring, resp.ID) {
		t.Errorf("duplicate loadstring %q does not reference existing ID", resp.Loadstring)
	}
	if resp.Error == "" {
		t.Error("duplicate response has empty error message")
	}
}

func TestGenerateBadJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	router := newRouter(NewScriptsHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Generate bad JSON status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		FetchScript(gomock.Any(), "abc123").
		Return("print(1)   print(2)", nil)
	router := newRouter(NewScriptsHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/script.lua?id=abc123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Fetch status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if w.Body.String() != "print(1)   print(2)" {
		t.Errorf("Fetch body = %q, want stored script", w.Body.String())
	}
}

func TestFetchNotFound(t *testing.T) {
	tests := []struct {
		name string
		url  string
		mock func(svc *mocks.MockService)
	}{
		{
			name: "unknown id",
			url:  "/script.lua?id=nope",
			mock: func(svc *mocks.MockService) {
				svc.EXPECT().FetchScript(gomock.Any(), "nope").Return("", vault.ErrNotFound)
			},
		},
		{
			name: "missing id",
			url:  "/script.lua",
			mock: func(svc *mocks.MockService) {},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockService(ctrl)
			tt.mock(svc)
			router := newRouter(NewScriptsHandler(svc))

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Fetch status = %d, want %d", w.Code, http.StatusNotFound)
			}
			if w.Body.String() != scriptNotFoundBody {
				t.Errorf("Fetch body = %q, want %q", w.Body.String(), scriptNotFoundBody)
			}
		})
	}
}

func TestList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	accessed := created.Add(time.Hour)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		ListOwnerScripts(gomock.Any(), testOwner).
		Return([]*storage.ScriptRecord{
			{
				ID:             "abc",
				OwnerID:        testOwner,
				Body:           "print(1)",
				CreatedAt:      created,
				AccessCount:    7,
				LastAccessedAt: &accessed,
			},
		}, nil)
	router := newRouter(NewScriptsHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "http://vault.test/my-scripts",
		jsonBody(t, OwnerRequest{UserID: testOwner}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("List status = %d, want %d", w.Code, http.StatusOK)
	}
	var views []ScriptView
	if err := json.NewDecoder(w.Body).Decode(&views); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(views))
	}
	v := views[0]
	if v.ID != "abc" || v.Script != "print(1)" || v.AccessCount != 7 {
		t.Errorf("List entry = %+v, want record fields", v)
	}
	if v.LastAccessed == nil || !v.LastAccessed.Equal(accessed) {
		t.Errorf("List entry LastAccessed = %v, want %v", v.LastAccessed, accessed)
	}
	if !strings.Contains(v.Loadstring, "http://vault.test/script.lua?id=abc") {
		t.Errorf("List entry loadstring = %q, want link to record", v.Loadstring)
	}
}

func TestListEmptyIsArray(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		ListOwnerScripts(gomock.Any(), testOwner).
		Return(nil, nil)
	router := newRouter(NewScriptsHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/my-scripts",
		jsonBody(t, OwnerRequest{UserID: testOwner}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("List empty body = %q, want []", got)
	}
}

func TestUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		UpdateScript(gomock.Any(), "abc", testOwner, "print(2)").
		Return(&storage.ScriptRecord{ID: "abc"}, nil)
	router := newRouter(NewScriptsHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/my-scripts/abc",
		jsonBody(t, UpdateRequest{Script: "print(2)", UserID: testOwner}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Update status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestUpdateErrors(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"not found", vault.ErrNotFound, http.StatusNotFound},
		{"wrong owner", vault.ErrForbidden, http.StatusForbidden},
		{"duplicate", &vault.DuplicateError{ExistingID: "other"}, http.StatusBadRequest},
		{"validation", &vault.ValidationError{Field: "script", Message: "script cannot be empty"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockService(ctrl)
			svc.EXPECT().
				UpdateScript(gomock.Any(), "abc", testOwner, gomock.Any()).
				Return(nil, tt.svcErr)
			router := newRouter(NewScriptsHandler(svc))

			req := httptest.NewRequest(http.MethodPost, "/my-scripts/abc",
				jsonBody(t, UpdateRequest{Script: "x", UserID: testOwner}))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Update status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		DeleteScript(gomock.Any(), "abc", testOwner).
		Return(nil)
	router := newRouter(NewScriptsHandler(svc))

	req := httptest.NewRequest(http.MethodDelete, "/my-scripts/abc",
		jsonBody(t, OwnerRequest{UserID: testOwner}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Delete status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp MessageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message == "" {
		t.Error("Delete response has empty message")
	}
}

func TestDeleteErrors(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"not found", vault.ErrNotFound, http.StatusNotFound},
		{"wrong owner", vault.ErrForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockService(ctrl)
			svc.EXPECT().
				DeleteScript(gomock.Any(), "abc", testOwner).
				Return(tt.svcErr)
			router := newRouter(NewScriptsHandler(svc))

			req := httptest.NewRequest(http.MethodDelete, "/my-scripts/abc",
				jsonBody(t, OwnerRequest{UserID: testOwner}))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Delete status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestBaseURLHonorsForwardedProto(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://vault.test/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := requestBaseURL(req); got != "https://vault.test" {
		t.Errorf("requestBaseURL() = %q, want %q", got, "https://vault.test")
	}
}
