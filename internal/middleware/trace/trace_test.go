package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareTagsRequest(t *testing.T) {
	var seenID string
	handler := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seenID == "" || !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("handler must see a generated request id, got %q", seenID)
	}
	if got := rec.Header().Get("X-Request-ID"); got != seenID {
		t.Fatalf("response header %q does not match context id %q", got, seenID)
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := FromContext(r.Context()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}

func TestGenerateRequestIDUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = struct{}{}
	}
}
