// Package apitest provides an in-process fake of the pixelfit backend for
// tests of packages that consume internal/api.
package apitest

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/env"
)

// SessionCookie is the cookie name the backend uses.
const SessionCookie = "pixelfit_session"

// Sizes mirrors the backend's output catalogue.
var Sizes = []api.Size{
	{Label: "album_ditto_soundcloud", Width: 3000, Height: 3000},
	{Label: "youtube_thumbnail", Width: 1280, Height: 720},
	{Label: "instagram_square", Width: 1080, Height: 1080},
	{Label: "instagram_portrait", Width: 1080, Height: 1350},
	{Label: "instagram_reels", Width: 1080, Height: 1920},
}

// Account is a registered user of the fake backend.
type Account struct {
	Name     string
	Username string
	Gender   string
	Email    string
	Password string
}

// FilePart records one uploaded file.
type FilePart struct {
	Name        string
	ContentType string
	Size        int
}

// ResizeCall records one request to /resize.
type ResizeCall struct {
	Files      []FilePart
	BaseNames  string
	MainFolder string
	HasFolders bool
}

// Failure forces an endpoint to answer with a fixed status and body.
type Failure struct {
	Status      int
	Body        string
	ContentType string
}

// Backend is a fake backend served over httptest.
type Backend struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]*Account
	sessions    map[string]string
	failures    map[string]Failure
	resizeCalls []ResizeCall
	logoutCalls int
	meCalls     int
}

// New starts a fake backend that is closed when the test ends.
func New(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		accounts: make(map[string]*Account),
		sessions: make(map[string]string),
		failures: make(map[string]Failure),
	}

	r := chi.NewRouter()
	r.Use(b.failureMiddleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/sizes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sizes": Sizes})
	})
	r.Post("/api/login", b.handleLogin)
	r.Post("/api/signup", b.handleSignup)
	r.Get("/api/me", b.handleMe)
	r.Post("/api/username", b.handleUsername)
	r.Post("/api/logout", b.handleLogout)
	r.Post("/api/auth/google/link/start", b.handleLinkStart)
	r.Post("/resize", b.handleResize)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// Env is the environment pointing at the fake backend.
func (b *Backend) Env() env.Environment {
	return env.Environment{IsLocal: true, APIBase: b.URL}
}

// Client returns an API client with its own in-memory cookie jar.
func (b *Backend) Client(t *testing.T) *api.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return api.New(b.Env(), api.WithJar(jar))
}

// AddAccount registers an account.
func (b *Backend) AddAccount(a Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := a
	b.accounts[strings.ToLower(a.Email)] = &acc
}

// Fail makes every request to path answer with f.
func (b *Backend) Fail(path string, f Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = f
}

// ResizeCalls returns the recorded /resize requests.
func (b *Backend) ResizeCalls() []ResizeCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ResizeCall(nil), b.resizeCalls...)
}

// LogoutCalls returns how many times /api/logout was hit.
func (b *Backend) LogoutCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logoutCalls
}

// MeCalls returns how many times /api/me was hit.
func (b *Backend) MeCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meCalls
}

// Account returns the account registered under email.
func (b *Backend) Account(email string) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[strings.ToLower(email)]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

func (b *Backend) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		f, ok := b.failures[r.URL.Path]
		if r.URL.Path == "/api/me" {
			b.meCalls++
		}
		if r.URL.Path == "/api/logout" {
			b.logoutCalls++
		}
		b.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ct := f.ContentType
		if ct == "" {
			ct = "application/json"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(f.Status)
		io.WriteString(w, f.Body)
	})
}

func (b *Backend) startSession(w http.ResponseWriter, email string) {
	token := uuid.NewString()
	b.sessions[token] = email
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", MaxAge: 3600, HttpOnly: true})
}

func (b *Backend) currentAccount(r *http.Request) *Account {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	email, ok := b.sessions[c.Value]
	if !ok {
		return nil
	}
	return b.accounts[email]
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body.")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[strings.ToLower(req.Email)]
	if !ok || acc.Password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	b.startSession(w, strings.ToLower(req.Email))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body.")
		return
	}
	if req.Name == "" || req.Username == "" || req.Gender == "" || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Name, username, gender, email, and password are required.")
		return
	}
	if req.Gender != "male" && req.Gender != "female" {
		writeDetail(w, http.StatusBadRequest, "Gender must be 'male' or 'female'.")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email := strings.ToLower(req.Email)
	if _, exists := b.accounts[email]; exists {
		writeDetail(w, http.StatusBadRequest, "An account with that email already exists.")
		return
	}
	b.accounts[email] = &Account{Name: req.Name, Username: req.Username, Gender: req.Gender, Email: email, Password: req.Password}
	b.startSession(w, email)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.currentAccount(r)
	if acc == nil {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"user": map[string]any{
			"id": 1, "name": acc.Name, "username": acc.Username, "gender": acc.Gender,
			"email": acc.Email, "provider": "local", "avatar_url": nil,
		},
	})
}

func (b *Backend) handleUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body.")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeDetail(w, http.StatusBadRequest, "Username is required.")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.currentAccount(r)
	if acc == nil {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	for _, other := range b.accounts {
		if other != acc && other.Username == username {
			writeDetail(w, http.StatusBadRequest, "That username is already taken.")
			return
		}
	}
	acc.Username = username
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "username": username})
}

// GoogleConsentURL is where the fake backend sends account linking.
const GoogleConsentURL = "https://accounts.google.com/o/oauth2/v2/auth?prompt=consent"

func (b *Backend) handleLinkStart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	acc := b.currentAccount(r)
	b.mu.Unlock()
	if acc == nil {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	http.Redirect(w, r, GoogleConsentURL+"&state="+uuid.NewString(), http.StatusTemporaryRedirect)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	if c, err := r.Cookie(SessionCookie); err == nil {
		delete(b.sessions, c.Value)
	}
	b.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) handleResize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form.")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeDetail(w, http.StatusBadRequest, "No files provided.")
		return
	}

	call := ResizeCall{}
	if v, ok := r.MultipartForm.Value["base_names"]; ok && len(v) > 0 {
		call.BaseNames = v[0]
		call.HasFolders = true
	}
	if v, ok := r.MultipartForm.Value["main_folder"]; ok && len(v) > 0 {
		call.MainFolder = v[0]
	}
	for _, fh := range headers {
		call.Files = append(call.Files, FilePart{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Size: int(fh.Size)})
	}
	b.mu.Lock()
	b.resizeCalls = append(b.resizeCalls, call)
	b.mu.Unlock()

	var folders []string
	if call.HasFolders {
		if err := json.Unmarshal([]byte(call.MainFolder), &folders); err != nil || len(folders) != len(headers) {
			writeDetail(w, http.StatusBadRequest, "main_folder length must match files length.")
			return
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, fh := range headers {
		ct := fh.Header.Get("Content-Type")
		if ct != "image/png" && ct != "image/jpeg" {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type for %s.", fh.Filename))
			return
		}
		base := strings.TrimSuffix(fh.Filename, path.Ext(fh.Filename))
		if base == "" {
			base = "image"
		}
		folder := base
		if folders != nil {
			folder = folders[i]
			base = folders[i]
		}
		for _, s := range Sizes {
			f, err := zw.Create(fmt.Sprintf("%s/%s_%s_%dx%d.jpeg", folder, base, s.Label, s.Width, s.Height))
			if err != nil {
				writeDetail(w, http.StatusInternalServerError, err.Error())
				return
			}
			f.Write([]byte("jpeg"))
		}
	}
	zw.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=resized_images.zip")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
