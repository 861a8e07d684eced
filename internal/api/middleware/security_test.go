package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func passThrough() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestValidateRequest(t *testing.T) {
	h := ValidateRequest(passThrough())

	tests := []struct {
		name        string
		method      string
		target      string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json post passes", "POST", "/emails", `{}`, "application/json", http.StatusOK},
		{"post without body passes", "POST", "/admin/reset", "", "", http.StatusOK},
		{"wrong content type rejected", "POST", "/emails", `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"get needs no content type", "GET", "/groups", "", "", http.StatusOK},
		{"dotted ids are fine", "GET", "/groups/@dev.team/inbox", "", "", http.StatusOK},
		{"double slash rejected", "GET", "/groups//inbox", "", "", http.StatusBadRequest},
		{"script tag in query rejected", "GET", "/groups?id=<script>", "", "", http.StatusBadRequest},
		{"event handler in query rejected", "GET", "/groups?id=onerror=x", "", "", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body *strings.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tc.method, tc.target, body)
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(16)(passThrough())

	req := httptest.NewRequest("POST", "/emails", strings.NewReader(strings.Repeat("a", 32)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/emails", strings.NewReader("small"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
