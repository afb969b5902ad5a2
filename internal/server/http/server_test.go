package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/sibulut/simple-atom/internal/errs"
	"github.com/sibulut/simple-atom/internal/model"
	"github.com/sibulut/simple-atom/internal/service"
	"github.com/sibulut/simple-atom/internal/store"
)

// fakeIdentity is an in-memory IdentityClient for handler tests.
type fakeIdentity struct {
	accounts map[string]struct {
		password string
		fullName string
	}
	sessions map[string]model.Session
	seq      int
}

var _ service.IdentityClient = (*fakeIdentity)(nil)

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		accounts: map[string]struct {
			password string
			fullName string
		}{},
		sessions: map[string]model.Session{},
	}
}

func (f *fakeIdentity) SignUp(_ context.Context, email, password, fullName string) (model.SignUpResult, error) {
	if err := validate(email, password, fullName); err != nil {
		return model.SignUpResult{}, err
	}
	if _, ok := f.accounts[email]; ok {
		return model.SignUpResult{}, errs.ErrUserExists
	}
	f.accounts[email] = struct {
		password string
		fullName string
	}{password, fullName}
	return model.SignUpResult{UserID: "id-" + email, NextStep: model.StepDone}, nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (model.Session, string, error) {
	if err := validate(email, password, "x"); err != nil {
		return model.Session{}, "", err
	}
	acc, ok := f.accounts[email]
	if !ok {
		return model.Session{}, "", errs.ErrUserNotFound
	}
	if acc.password != password {
		return model.Session{}, "", errs.ErrInvalidCredentials
	}
	f.seq++
	token := fmt.Sprintf("tok-%d", f.seq)
	sess := model.Session{UserID: "id-" + email, Username: email, Email: email, FullName: acc.fullName}
	f.sessions[token] = sess
	return sess, token, nil
}

func (f *fakeIdentity) SignOut(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeIdentity) CurrentSession(_ context.Context, token string) (model.Session, error) {
	if sess, ok := f.sessions[token]; ok {
		return sess, nil
	}
	return model.Session{}, errs.ErrNoSession
}

func validate(email, password, name string) error {
	if email == "" || password == "" || name == "" {
		return errs.ErrValidation
	}
	if len(password) < 8 {
		return errs.ErrValidation
	}
	return nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	ident := newFakeIdentity()
	meta := service.NewSynchronizer(store.NewMemory())
	return New(ident, meta, zap.NewNop()).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return w
}

func TestSignUpSignInDashboardFlow(t *testing.T) {
	h := newTestServer(t)

	// Fresh visitor: anonymous.
	var st stateResponse
	w := doJSON(t, h, http.MethodPost, "/api/v1/session/check", "", nil, &st)
	if w.Code != http.StatusOK || st.State != "anonymous" {
		t.Fatalf("check: code=%d state=%q", w.Code, st.State)
	}

	// Sign up completes and yields a session token.
	var tok tokenResponse
	w = doJSON(t, h, http.MethodPost, "/api/v1/signup", "", signUpRequest{Email: "a@x.com", Password: "password123", Name: "Ada L"}, &tok)
	if w.Code != http.StatusOK || tok.Token == "" {
		t.Fatalf("signup: code=%d body=%s", w.Code, w.Body.String())
	}

	// Dashboard shows the defaulted record with the seeded name.
	var dash dashboardResponse
	w = doJSON(t, h, http.MethodGet, "/api/v1/dashboard", tok.Token, nil, &dash)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: code=%d body=%s", w.Code, w.Body.String())
	}
	if dash.FullName != "Ada L" || dash.WatchCount != 0 || len(dash.Ratings) != 0 {
		t.Fatalf("dashboard = %+v", dash)
	}

	// Watch the same video twice: both count.
	doJSON(t, h, http.MethodPost, "/api/v1/watch", tok.Token, watchRequest{VideoID: 3}, &dash)
	w = doJSON(t, h, http.MethodPost, "/api/v1/watch", tok.Token, watchRequest{VideoID: 3}, &dash)
	if w.Code != http.StatusOK || dash.WatchCount != 2 || len(dash.VideosWatched) != 2 {
		t.Fatalf("watch twice: code=%d dash=%+v", w.Code, dash)
	}

	// Re-rating overwrites.
	doJSON(t, h, http.MethodPost, "/api/v1/rate", tok.Token, rateRequest{VideoID: 7, Rating: 5}, &dash)
	w = doJSON(t, h, http.MethodPost, "/api/v1/rate", tok.Token, rateRequest{VideoID: 7, Rating: 2}, &dash)
	if w.Code != http.StatusOK || dash.Ratings[7] != 2 {
		t.Fatalf("rate: code=%d ratings=%v", w.Code, dash.Ratings)
	}
}

func TestCheckSession_RevokesResidualSession(t *testing.T) {
	h := newTestServer(t)

	var tok tokenResponse
	doJSON(t, h, http.MethodPost, "/api/v1/signup", "", signUpRequest{Email: "a@x.com", Password: "password123", Name: "Ada L"}, &tok)

	// Entering the sign-in screen with a live token always comes back
	// anonymous, and the token is dead afterwards.
	var st stateResponse
	w := doJSON(t, h, http.MethodPost, "/api/v1/session/check", tok.Token, nil, &st)
	if w.Code != http.StatusOK || st.State != "anonymous" {
		t.Fatalf("check: code=%d state=%q", w.Code, st.State)
	}
	w = doJSON(t, h, http.MethodGet, "/api/v1/dashboard", tok.Token, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("dashboard after revocation: code=%d", w.Code)
	}
}

func TestErrorsBecomeDisplayStrings(t *testing.T) {
	h := newTestServer(t)

	// Unknown user.
	w := doJSON(t, h, http.MethodPost, "/api/v1/signin", "", signInRequest{Email: "ghost@x.com", Password: "password123"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("signin unknown: code=%d", w.Code)
	}
	var er errorResponse
	if err := json.NewDecoder(w.Body).Decode(&er); err != nil || er.Error == "" {
		t.Fatalf("error body missing display string: %v %q", err, er.Error)
	}

	// Validation failure is a 400 with a message.
	w = doJSON(t, h, http.MethodPost, "/api/v1/signup", "", signUpRequest{Email: "a@x.com", Password: "short", Name: "Ada"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short password: code=%d", w.Code)
	}

	// Out-of-range rating is rejected before it reaches the store.
	var tok tokenResponse
	doJSON(t, h, http.MethodPost, "/api/v1/signup", "", signUpRequest{Email: "b@x.com", Password: "password123", Name: "Bo"}, &tok)
	w = doJSON(t, h, http.MethodPost, "/api/v1/rate", tok.Token, rateRequest{VideoID: 7, Rating: 9}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad rating: code=%d body=%s", w.Code, w.Body.String())
	}

	// Garbage body.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signin", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body: code=%d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/healthz", "", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: code=%d", w.Code)
	}
}
