package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/otp-auth-api/internal/application/auth"
	"github.com/otp-auth-api/internal/application/otp"
	"github.com/otp-auth-api/internal/application/user"
	"github.com/otp-auth-api/internal/config"
	"github.com/otp-auth-api/internal/domain"
	jwtinfra "github.com/otp-auth-api/internal/infrastructure/jwt"
	"github.com/otp-auth-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory infrastructure fakes ---

// memCodeStore mirrors the one-row-per-phone semantics of the real store.
type memCodeStore struct {
	mu   sync.Mutex
	rows map[string]*domain.OTPCode
}

func newMemCodeStore() *memCodeStore {
	return &memCodeStore{rows: map[string]*domain.OTPCode{}}
}

func (s *memCodeStore) Replace(ctx context.Context, rec *domain.OTPCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.rows[rec.Phone] = &cp
	return nil
}

func (s *memCodeStore) Get(ctx context.Context, phone string) (*domain.OTPCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memCodeStore) Consume(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[phone]
	if !ok || rec.Code != code || rec.Used {
		return domain.ErrAlreadyUsed
	}
	rec.Used = true
	return nil
}

func (s *memCodeStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, phone)
	return nil
}

type memUserStore struct {
	mu      sync.Mutex
	byPhone map[string]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byPhone: map[string]*domain.User{}}
}

func (s *memUserStore) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byPhone[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byPhone {
		if u.UserID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) Create(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byPhone[u.Phone]; exists {
		return domain.ErrConflict
	}
	cp := *u
	s.byPhone[u.Phone] = &cp
	return nil
}

func (s *memUserStore) Update(ctx context.Context, phone string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byPhone[phone]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "phone_verified":
			u.PhoneVerified = v.(bool)
		case "last_authenticated_at":
			u.LastAuthenticatedAt = v.(time.Time)
		}
	}
	return nil
}

// captureGateway records every delivered code and can be flipped into a
// failing state to exercise the delivery-failure path.
type captureGateway struct {
	mu       sync.Mutex
	lastCode string
	fail     bool
}

func (g *captureGateway) Send(ctx context.Context, phone, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return fmt.Errorf("carrier rejected message: %w", domain.ErrDelivery)
	}
	g.lastCode = code
	return nil
}

func (g *captureGateway) last() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCode
}

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))
	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// testAPI wires real services over in-memory stores and mounts them on the
// same routes the production router uses.
type testAPI struct {
	router  http.Handler
	gateway *captureGateway
	codes   *memCodeStore
	users   *memUserStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gw := &captureGateway{}
	codes := newMemCodeStore()
	users := newMemUserStore()
	provider := newTestProvider(t)

	otpSvc := otp.NewService(otp.ServiceDeps{
		OTPRepo:    codes,
		Gateway:    gw,
		TTL:        5 * time.Minute,
		CodeLength: 6,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    users,
		JWTProvider: provider,
	})
	userSvc := user.NewService(users)

	authH := NewAuthHandler(otpSvc, authSvc)
	profileH := NewProfileHandler(userSvc)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/send-otp", authH.SendOTP)
		r.Post("/auth/verify-otp", authH.VerifyOTP)
		r.Post("/auth/refresh", authH.Refresh)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(provider))
			r.Get("/auth/profile", profileH.Get)
			r.Put("/auth/profile", profileH.Update)
		})
	})

	return &testAPI{router: r, gateway: gw, codes: codes, users: users}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// --- scenarios ---

func TestSignupFlow(t *testing.T) {
	api := newTestAPI(t)

	// Request a code for a brand-new phone number.
	rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "5550001111"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sent SendOTPEnvelope
	decode(t, rec, &sent)
	assert.Equal(t, "+15550001111", sent.PhoneNumber) // normalized with default country code
	assert.Equal(t, 5, sent.ExpiresInMinutes)
	require.Len(t, api.gateway.last(), 6)

	// Exchange the delivered code for tokens.
	rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "5550001111",
		"otp_code":     api.gateway.last(),
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var verified VerifyOTPEnvelope
	decode(t, rec, &verified)
	assert.True(t, verified.IsNewUser)
	require.NotNil(t, verified.User)
	assert.Equal(t, "+15550001111", verified.User.Phone)
	assert.True(t, verified.User.PhoneVerified)
	require.NotNil(t, verified.Tokens)
	assert.NotEmpty(t, verified.Tokens.Access)
	assert.NotEmpty(t, verified.Tokens.Refresh)

	// The access token opens the profile.
	rec = api.do(t, http.MethodGet, "/v1/auth/profile", nil, verified.Tokens.Access)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile UserEnvelope
	decode(t, rec, &profile)
	assert.Equal(t, verified.User.UserID, profile.User.UserID)

	// The same code cannot be consumed twice.
	rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "5550001111",
		"otp_code":     api.gateway.last(),
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginFlow_ExistingUser(t *testing.T) {
	api := newTestAPI(t)

	login := func() VerifyOTPEnvelope {
		rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "+15550002222"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
			"phone_number": "+15550002222",
			"otp_code":     api.gateway.last(),
		}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out VerifyOTPEnvelope
		decode(t, rec, &out)
		return out
	}

	first := login()
	second := login()

	assert.True(t, first.IsNewUser)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.UserID, second.User.UserID) // same identity across logins
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "+15550003333"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	wrong := "000000"
	if api.gateway.last() == wrong {
		wrong = "000001"
	}
	rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "+15550003333",
		"otp_code":     wrong,
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A failed guess does not burn the code.
	rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "+15550003333",
		"otp_code":     api.gateway.last(),
	}, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestVerifyOTP_NoCodeIssued(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "+15550004444",
		"otp_code":     "123456",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendOTP_InvalidPhone(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "12"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendOTP_DeliveryFailure(t *testing.T) {
	api := newTestAPI(t)
	api.gateway.fail = true

	rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "+15550005555"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The rolled-back code must not be verifiable.
	_, err := api.codes.Get(context.Background(), "+15550005555")
	assert.Error(t, err)
}

func TestSendOTP_ReissueInvalidatesPrior(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "+15550006666"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	firstCode := api.gateway.last()

	rec = api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "+15550006666"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	secondCode := api.gateway.last()

	if firstCode != secondCode {
		rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
			"phone_number": "+15550006666",
			"otp_code":     firstCode,
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "+15550006666",
		"otp_code":     secondCode,
	}, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRefresh(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "+15550007777"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "+15550007777",
		"otp_code":     api.gateway.last(),
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var verified VerifyOTPEnvelope
	decode(t, rec, &verified)

	rec = api.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh": verified.Tokens.Refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var refreshed TokensEnvelope
	decode(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed.Tokens.Access)
	assert.NotEmpty(t, refreshed.Tokens.Refresh)

	// An access token is not accepted as a refresh token.
	rec = api.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh": verified.Tokens.Access}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_BadRequests(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh": "garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/v1/auth/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile_Update(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/auth/send-otp", map[string]string{"phone_number": "+15550008888"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{
		"phone_number": "+15550008888",
		"otp_code":     api.gateway.last(),
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var verified VerifyOTPEnvelope
	decode(t, rec, &verified)

	rec = api.do(t, http.MethodPut, "/v1/auth/profile", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}, verified.Tokens.Access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated UserEnvelope
	decode(t, rec, &updated)
	assert.Equal(t, "Ada", updated.User.FirstName)
	assert.Equal(t, "Lovelace", updated.User.LastName)

	// Change persists across reads.
	rec = api.do(t, http.MethodGet, "/v1/auth/profile", nil, verified.Tokens.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched UserEnvelope
	decode(t, rec, &fetched)
	assert.Equal(t, "Ada", fetched.User.FirstName)
}
