package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gotrocks/proportal/internal/auth"
	"github.com/gotrocks/proportal/internal/config"
	"github.com/gotrocks/proportal/internal/db"
	"github.com/gotrocks/proportal/internal/middleware"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var dbAvailable bool

var testServer *httptest.Server

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env.local")

	cfg := config.LoadFromEnv()
	if cfg.DatabaseURL == "" {
		os.Exit(m.Run())
	}
	// Every test logs in several times from the same address.
	cfg.LoginRatePerMin = 1000

	db.Connect(cfg)
	dbAvailable = true
	auth.Init()

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Mount("/auth", auth.SetupRoutes(cfg))

	testServer = httptest.NewServer(r)
	code := m.Run()
	testServer.Close()
	os.Exit(code)
}

// createTestUser inserts a contractor and a user of the given role and
// removes both when the test ends. Returns the email and plaintext password.
func createTestUser(t *testing.T, role string) (email, password string) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	contractor := auth.Contractor{
		ID:       uuid.New().String(),
		Name:     "Integration Contractor",
		Features: pq.StringArray{auth.FeatureSiteMeasure},
		Active:   true,
	}
	if err := db.DB.Create(&contractor).Error; err != nil {
		t.Fatalf("failed to create contractor: %v", err)
	}

	email = fmt.Sprintf("user_%s@test.example", uuid.New().String()[:8])
	password = "TestPass123!"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}

	user := auth.User{
		UserID:         uuid.New().String(),
		Email:          email,
		Name:           "Test User",
		HashedPassword: string(hashed),
		Role:           role,
		ContractorID:   contractor.ID,
		Language:       "en",
		Active:         true,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.Session{})
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.User{})
		db.DB.Where("id = ?", contractor.ID).Delete(&auth.Contractor{})
	})

	return email, password
}

func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, path string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := client.Post(testServer.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func loginUser(t *testing.T, client *http.Client, email, password string) *http.Response {
	t.Helper()
	return postJSON(t, client, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func decodeMe(t *testing.T, body string) auth.MeResponse {
	t.Helper()
	var me auth.MeResponse
	if err := json.Unmarshal([]byte(body), &me); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}
	return me
}

func TestLoginReturnsSessionCookie(t *testing.T) {
	email, password := createTestUser(t, auth.RoleForeman)
	client := newClientWithJar(t)

	resp := loginUser(t, client, strings.ToUpper(email), password)
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}
	if setCookie := resp.Header.Get("Set-Cookie"); !strings.Contains(setCookie, "session_id") {
		t.Errorf("expected Set-Cookie to contain 'session_id', got: %q", setCookie)
	}

	me := decodeMe(t, body)
	if me.Email != email {
		t.Errorf("expected email %q, got %q", email, me.Email)
	}
	if me.Role != auth.RoleForeman || !me.SiteMeasureEnabled {
		t.Errorf("unexpected profile: %+v", me)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	email, _ := createTestUser(t, auth.RoleForeman)
	resp := loginUser(t, newClientWithJar(t), email, "wrong-password")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d; body: %s", resp.StatusCode, body)
	}
}

func TestSessionPersistsAcrossRequests(t *testing.T) {
	email, password := createTestUser(t, auth.RoleForeman)
	client := newClientWithJar(t)

	loginResp := loginUser(t, client, email, password)
	if body := readBody(t, loginResp); loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %s", loginResp.StatusCode, body)
	}

	for i := 0; i < 2; i++ {
		meResp, err := client.Get(testServer.URL + "/auth/me")
		if err != nil {
			t.Fatalf("GET /auth/me: %v", err)
		}
		meBody := readBody(t, meResp)
		if meResp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 from /auth/me, got %d; body: %s", meResp.StatusCode, meBody)
		}
		if me := decodeMe(t, meBody); me.Email != email {
			t.Errorf("expected email %q from /auth/me, got %q", email, me.Email)
		}
	}
}

func TestLogoutClearsSession(t *testing.T) {
	email, password := createTestUser(t, auth.RoleForeman)
	client := newClientWithJar(t)

	loginResp := loginUser(t, client, email, password)
	if body := readBody(t, loginResp); loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %s", loginResp.StatusCode, body)
	}

	logoutResp := postJSON(t, client, "/auth/logout", nil)
	if body := readBody(t, logoutResp); logoutResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /auth/logout, got %d; body: %s", logoutResp.StatusCode, body)
	}

	meResp, err := client.Get(testServer.URL + "/auth/me")
	if err != nil {
		t.Fatalf("GET /auth/me after logout: %v", err)
	}
	if body := readBody(t, meResp); meResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 from /auth/me after logout, got %d; body: %s", meResp.StatusCode, body)
	}
}

func TestLanguagePreference(t *testing.T) {
	email, password := createTestUser(t, auth.RoleForeman)
	client := newClientWithJar(t)
	readBody(t, loginUser(t, client, email, password))

	resp := postJSON(t, client, "/auth/language", map[string]string{"language": "fr"})
	if body := readBody(t, resp); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported language, got %d; body: %s", resp.StatusCode, body)
	}

	resp = postJSON(t, client, "/auth/language", map[string]string{"language": "es"})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}
	if me := decodeMe(t, body); me.Language != "es" {
		t.Errorf("expected language es, got %q", me.Language)
	}
}

func TestAvailabilityIsSupervisorOnly(t *testing.T) {
	email, password := createTestUser(t, auth.RoleForeman)
	client := newClientWithJar(t)
	readBody(t, loginUser(t, client, email, password))

	resp := postJSON(t, client, "/auth/availability", map[string]bool{"isAvailable": true})
	if body := readBody(t, resp); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreman, got %d; body: %s", resp.StatusCode, body)
	}

	email, password = createTestUser(t, auth.RoleSupervisor)
	client = newClientWithJar(t)
	readBody(t, loginUser(t, client, email, password))

	resp = postJSON(t, client, "/auth/availability", map[string]bool{"isAvailable": true})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for supervisor, got %d; body: %s", resp.StatusCode, body)
	}
	if me := decodeMe(t, body); !me.IsAvailable {
		t.Error("expected supervisor to be available")
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	email, password := createTestUser(t, auth.RoleForeman)
	client := newClientWithJar(t)

	loginResp := loginUser(t, client, email, password)
	loginBody := readBody(t, loginResp)
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %s", loginResp.StatusCode, loginBody)
	}
	userID := decodeMe(t, loginBody).UserID

	if err := db.DB.Model(&auth.Session{}).
		Where("user_id = ?", userID).
		Update("expires_at", time.Now().Add(-1*time.Hour)).Error; err != nil {
		t.Fatalf("failed to expire session: %v", err)
	}

	meResp, err := client.Get(testServer.URL + "/auth/me")
	if err != nil {
		t.Fatalf("GET /auth/me after expiry: %v", err)
	}
	meBody := readBody(t, meResp)

	if meResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 from /auth/me with expired session, got %d; body: %s", meResp.StatusCode, meBody)
	}
	if !strings.Contains(meBody, "Session expired") {
		t.Errorf("expected body to contain %q, got: %q", "Session expired", meBody)
	}
}
