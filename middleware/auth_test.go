package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testJWTKey = []byte("test-secret-key")

// makeToken создает подписанный токен для тестов
func makeToken(t *testing.T, userID uint, email, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": float64(userID),
		"email":   email,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testJWTKey)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(testJWTKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, email, err := GetUserFromContext(r)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if userID != 1 {
			t.Errorf("user_id = %d, want 1", userID)
		}
		if email != "ivan@lyceum.ru" {
			t.Errorf("email = %s, want ivan@lyceum.ru", email)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req, err := http.NewRequest("GET", "/api/products", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+makeToken(t, 1, "ivan@lyceum.ru", "STUDENT"))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := AuthMiddleware(testJWTKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without a token")
	}))

	req, err := http.NewRequest("GET", "/api/products", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	handler := AuthMiddleware(testJWTKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called with an invalid token")
	}))

	req, err := http.NewRequest("GET", "/api/products", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer not-a-token")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusUnauthorized)
	}
}

func TestRequireAdmin(t *testing.T) {
	called := false
	protected := AuthMiddleware(testJWTKey)(http.HandlerFunc(RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})))

	// Администратор проходит
	req, err := http.NewRequest("POST", "/api/products", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+makeToken(t, 2, "admin@lyceum.ru", "ADMIN"))

	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	if !called {
		t.Error("handler should be called for ADMIN")
	}
	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	// Ученик получает отказ
	called = false
	req.Header.Set("Authorization", "Bearer "+makeToken(t, 1, "ivan@lyceum.ru", "STUDENT"))

	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	if called {
		t.Error("handler should not be called for STUDENT")
	}
	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusForbidden)
	}
}
