package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bluewhale-protocol/api-go/config"
	"github.com/bluewhale-protocol/api-go/mocks"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func item(id uint, at time.Time) models.Content {
	return models.Content{ID: id, CreatedAt: at}
}

func ids(items []models.Content) []uint {
	out := make([]uint, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return out
}

func TestMergePersonalized(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	followed := []models.Content{item(3, base.Add(3*time.Hour)), item(1, base.Add(time.Hour))}
	nearby := []models.Content{item(2, base.Add(2*time.Hour)), item(3, base.Add(3*time.Hour)), item(4, base.Add(time.Hour))}

	tests := []struct {
		name  string
		p     utils.PageParams
		want  []uint
		total int64
	}{
		{"first page", utils.PageParams{Page: 1, Limit: 2}, []uint{3, 2}, 4},
		{"ties break on id", utils.PageParams{Page: 2, Limit: 2}, []uint{4, 1}, 4},
		{"past the end", utils.PageParams{Page: 3, Limit: 2}, []uint{}, 4},
		{"overflowing offset", utils.PageParams{Page: 1<<62 + 1, Limit: 10}, []uint{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := mergePersonalized(followed, nearby, tt.p)
			if total != tt.total {
				t.Errorf("expected total %d, got %d", tt.total, total)
			}
			if g := ids(got); len(g) != len(tt.want) || (len(g) > 0 && (g[0] != tt.want[0] || g[len(g)-1] != tt.want[len(tt.want)-1])) {
				t.Errorf("expected %v, got %v", tt.want, g)
			}
		})
	}

	if got, total := mergePersonalized(nil, nil, utils.PageParams{Page: 1, Limit: 10}); total != 0 || got == nil || len(got) != 0 {
		t.Errorf("expected an empty non-nil page, got %v (%d)", got, total)
	}
}

func TestParseRadius(t *testing.T) {
	for raw, want := range map[string]float64{"": defaultRadiusKm, "abc": defaultRadiusKm, "-3": defaultRadiusKm, "0": defaultRadiusKm, "2.5": 2.5} {
		if got := parseRadius(raw); got != want {
			t.Errorf("parseRadius(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestValidateLocation(t *testing.T) {
	lat, lon, bad := 40.0, -74.0, 200.0

	if err := validateLocation(nil, nil); err != nil {
		t.Errorf("no location should be accepted: %v", err)
	}
	if err := validateLocation(&lat, &lon); err != nil {
		t.Errorf("valid location rejected: %v", err)
	}
	if err := validateLocation(&lat, nil); err == nil {
		t.Error("expected an error for a lone latitude")
	}
	if err := validateLocation(&lat, &bad); err == nil {
		t.Error("expected an error for an out of range longitude")
	}
}

type fakeGoogle struct {
	info *config.GoogleUserInfo
	err  error
}

func (f *fakeGoogle) VerifyIDToken(context.Context, string) (*config.GoogleUserInfo, error) {
	return f.info, f.err
}

func (f *fakeGoogle) GetUserInfo(context.Context, string) (*config.GoogleUserInfo, error) {
	return f.info, f.err
}

func (f *fakeGoogle) ExchangeCode(context.Context, string) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "exchanged"}, nil
}

func googleLogin(t *testing.T, ac *AuthController, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST("/auth/google", ac.GoogleLogin)

	req := httptest.NewRequest(http.MethodPost, "/auth/google", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGoogleLogin(t *testing.T) {
	stores, _ := mocks.NewStores()
	google := &fakeGoogle{info: &config.GoogleUserInfo{Sub: "g-42", Email: "Humpback@Whale.io", Picture: "https://img/h.png"}}
	ac := NewAuthController(stores, utils.NewTokenManager("google-secret", time.Hour, time.Hour), google, zerolog.Nop())

	w := googleLogin(t, ac, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without credentials, got %d", w.Code)
	}

	w = googleLogin(t, ac, `{"id_token":"token"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.User.Email != "humpback@whale.io" || body.User.Name != "humpback" || body.Token == "" {
		t.Errorf("unexpected created user: %+v", body.User)
	}

	// Same Google account resolves to the same user through any credential.
	w = googleLogin(t, ac, `{"code":"auth-code"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var again struct {
		User models.User `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &again); err != nil {
		t.Fatal(err)
	}
	if again.User.ID != body.User.ID {
		t.Errorf("expected user %d, got %d", body.User.ID, again.User.ID)
	}

	google.err = errors.New("bad token")
	if w := googleLogin(t, ac, `{"access_token":"x"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a rejected token, got %d", w.Code)
	}
}

func TestGoogleLoginLinksExistingAccount(t *testing.T) {
	stores, _ := mocks.NewStores()
	existing := &models.User{Email: "minke@whale.io", Name: "minke"}
	if err := stores.Users.Create(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	google := &fakeGoogle{info: &config.GoogleUserInfo{ID: "g-7", Email: "minke@whale.io", Picture: "https://img/m.png"}}
	ac := NewAuthController(stores, utils.NewTokenManager("google-secret", time.Hour, time.Hour), google, zerolog.Nop())

	if w := googleLogin(t, ac, `{"access_token":"x"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	linked, err := stores.Users.GetByGoogleID(context.Background(), "g-7")
	if err != nil {
		t.Fatal(err)
	}
	if linked.ID != existing.ID || linked.AvatarURL != "https://img/m.png" {
		t.Errorf("expected the existing account to be linked, got %+v", linked)
	}
}

// staleTokenStore answers lookups from a snapshot taken before any delete,
// the view a concurrent request has when both read the row first.
type staleTokenStore struct {
	store.TokenStore
	snapshot map[string]models.RefreshToken
}

func (s *staleTokenStore) GetByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := s.snapshot[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rt, nil
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	stores, _ := mocks.NewStores()
	ctx := context.Background()
	user := &models.User{Email: "sperm@whale.io", Name: "sperm"}
	if err := stores.Users.Create(ctx, user); err != nil {
		t.Fatal(err)
	}

	tokens := utils.NewTokenManager("refresh-secret", time.Hour, time.Hour)
	raw, expiresAt, err := tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := stores.Tokens.Create(ctx, &models.RefreshToken{UserID: user.ID, Token: raw, ExpiresAt: expiresAt}); err != nil {
		t.Fatal(err)
	}
	stored, err := stores.Tokens.GetByToken(ctx, raw)
	if err != nil {
		t.Fatal(err)
	}
	stores.Tokens = &staleTokenStore{TokenStore: stores.Tokens, snapshot: map[string]models.RefreshToken{raw: *stored}}

	ac := NewAuthController(stores, tokens, nil, zerolog.Nop())
	r := gin.New()
	r.POST("/auth/refresh", ac.Refresh)

	refresh := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(`{"refresh_token":"`+raw+`"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := refresh(); code != http.StatusOK {
		t.Fatalf("first refresh: expected 200, got %d", code)
	}
	if code := refresh(); code != http.StatusUnauthorized {
		t.Errorf("second refresh with the same token: expected 401, got %d", code)
	}
}
