package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionMiddleware_AssignsCookie(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getSessionID(r.Context())
	})

	recorder := httptest.NewRecorder()
	SessionMiddleware(next).ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Fatal("Expected session id in request context")
	}

	cookies := recorder.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "loja_session" && c.Value == seen {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected loja_session cookie with value %q, got %v", seen, cookies)
	}
}

func TestSessionMiddleware_ReusesCookie(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getSessionID(r.Context())
	})

	request := httptest.NewRequest("GET", "/", nil)
	request.AddCookie(&http.Cookie{Name: "loja_session", Value: "existing-session"})
	SessionMiddleware(next).ServeHTTP(httptest.NewRecorder(), request)

	if seen != "existing-session" {
		t.Errorf("Expected existing session id, got %q", seen)
	}
}

func TestOperatorAuth_RejectsMissingToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	recorder := httptest.NewRecorder()
	OperatorAuthMiddleware("secret")(next).ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
}

func TestOperatorAuth_RejectsEmptyConfiguredToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("X-Operator-Token", "")
	recorder := httptest.NewRecorder()
	OperatorAuthMiddleware("")(next).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
}

func TestOperatorAuth_AllowsValidToken(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("X-Operator-Token", "secret")
	OperatorAuthMiddleware("secret")(next).ServeHTTP(httptest.NewRecorder(), request)

	if !called {
		t.Error("Expected handler to be reached with a valid token")
	}
}
