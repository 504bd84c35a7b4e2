package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bluewhale-protocol/api-go/mocks"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*store.Stores, *mocks.DB, *utils.TokenManager, *models.User) {
	t.Helper()
	stores, db := mocks.NewStores()
	user := &models.User{Email: "blue@whale.io", Name: "blue"}
	if err := stores.Users.Create(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	return stores, db, utils.NewTokenManager(testSecret, time.Hour, 24*time.Hour), user
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body["error"]
}

func TestRequireAuth(t *testing.T) {
	stores, db, tokens, user := setup(t)

	r := gin.New()
	r.GET("/me", RequireAuth(tokens, stores.Users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": utils.GetCurrentUser(c).ID, "claims": utils.GetUser(c).UserID})
	})

	valid, err := tokens.GenerateAccessToken(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := utils.NewTokenManager(testSecret, -time.Minute, time.Hour).GenerateAccessToken(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	refresh, _, err := tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	orphan, err := tokens.GenerateAccessToken(999)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantError string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header is required"},
		{"no bearer", valid, http.StatusUnauthorized, "Invalid token format"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "Invalid token format"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, "Invalid token"},
		{"deleted user", "Bearer " + orphan, http.StatusNotFound, "User not found"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/me", tt.header)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantError != "" && errorOf(t, w) != tt.wantError {
				t.Errorf("error = %q, want %q", errorOf(t, w), tt.wantError)
			}
		})
	}

	db.Err = context.DeadlineExceeded
	if w := do(r, http.MethodGet, "/me", "Bearer "+valid); w.Code != http.StatusInternalServerError {
		t.Errorf("store failure status = %d, want 500", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	stores, _, tokens, user := setup(t)

	r := gin.New()
	r.GET("/feed", OptionalAuth(tokens, stores.Users), func(c *gin.Context) {
		if u := utils.GetCurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Name)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	token, _ := tokens.GenerateAccessToken(user.ID)
	if w := do(r, http.MethodGet, "/feed", "Bearer "+token); w.Body.String() != "blue" {
		t.Errorf("authenticated body = %q", w.Body.String())
	}
	if w := do(r, http.MethodGet, "/feed", "Bearer broken"); w.Body.String() != "anonymous" {
		t.Errorf("invalid token body = %q", w.Body.String())
	}
	if w := do(r, http.MethodGet, "/feed", ""); w.Body.String() != "anonymous" {
		t.Errorf("anonymous body = %q", w.Body.String())
	}
}

func TestRequireSelf(t *testing.T) {
	stores, _, tokens, user := setup(t)

	r := gin.New()
	r.PUT("/users/:userId", RequireAuth(tokens, stores.Users), RequireSelf(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token, _ := tokens.GenerateAccessToken(user.ID)
	if w := do(r, http.MethodPut, "/users/1", "Bearer "+token); w.Code != http.StatusNoContent {
		t.Errorf("own profile status = %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/users/2", "Bearer "+token); w.Code != http.StatusForbidden {
		t.Errorf("other profile status = %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/users/abc", "Bearer "+token); w.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d", w.Code)
	}
}

func TestRequireContentAndCommentOwner(t *testing.T) {
	stores, _, tokens, owner := setup(t)
	ctx := context.Background()

	other := &models.User{Email: "orca@sea.io", Name: "orca"}
	if err := stores.Users.Create(ctx, other); err != nil {
		t.Fatal(err)
	}
	content := &models.Content{Title: "Krill", Body: "tasty", AuthorID: owner.ID}
	if err := stores.Contents.Create(ctx, content); err != nil {
		t.Fatal(err)
	}
	comment := &models.Comment{ContentID: content.ID, AuthorID: other.ID, Body: "agreed"}
	if err := stores.Comments.Create(ctx, comment); err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	auth := RequireAuth(tokens, stores.Users)
	r.PUT("/content/:contentId", auth, RequireContentOwner(stores.Contents), func(c *gin.Context) {
		c.String(http.StatusOK, GetContent(c).Title)
	})
	r.PUT("/content/:contentId/comments/:commentId", auth, RequireCommentOwner(stores.Comments), func(c *gin.Context) {
		c.String(http.StatusOK, GetComment(c).Body)
	})

	ownerToken, _ := tokens.GenerateAccessToken(owner.ID)
	otherToken, _ := tokens.GenerateAccessToken(other.ID)
	contentPath := "/content/" + itoa(content.ID)
	commentPath := contentPath + "/comments/" + itoa(comment.ID)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantBody string
	}{
		{"content owner", contentPath, ownerToken, http.StatusOK, "Krill"},
		{"content stranger", contentPath, otherToken, http.StatusForbidden, ""},
		{"content missing", "/content/999", ownerToken, http.StatusNotFound, ""},
		{"content bad id", "/content/x", ownerToken, http.StatusBadRequest, ""},
		{"comment owner", commentPath, otherToken, http.StatusOK, "agreed"},
		{"comment stranger", commentPath, ownerToken, http.StatusForbidden, ""},
		{"comment wrong content", "/content/999/comments/" + itoa(comment.ID), otherToken, http.StatusNotFound, ""},
		{"comment missing", contentPath + "/comments/999", otherToken, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPut, tt.path, "Bearer "+tt.token)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/ok", "")
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id header")
	}
	if !strings.Contains(buf.String(), `"path":"/ok"`) || !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("missing request log: %s", buf.String())
	}

	buf.Reset()
	w = do(r, http.MethodGet, "/panic", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("panic status = %d, want 500", w.Code)
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Errorf("missing panic log: %s", buf.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Errorf("request id not propagated: %q", rec.Header().Get(RequestIDHeader))
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
