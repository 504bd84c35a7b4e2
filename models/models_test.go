package models

import (
	"testing"
	"time"
)

func TestNormalizeEmailAndDefaultName(t *testing.T) {
	email := NormalizeEmail("  Blue.Whale@Example.COM ")
	if email != "blue.whale@example.com" {
		t.Fatalf("unexpected normalized email %q", email)
	}
	if name := DefaultName(email); name != "blue.whale" {
		t.Errorf("expected name from local part, got %q", name)
	}
	if name := DefaultName("nobody"); name != "nobody" {
		t.Errorf("expected input back without @, got %q", name)
	}
}

func TestIsValidContentType(t *testing.T) {
	for _, ct := range []string{"text", "pdf", "article", "question", "discussion", "review", "news"} {
		if !IsValidContentType(ct) {
			t.Errorf("expected %q to be valid", ct)
		}
	}
	if IsValidContentType("video") {
		t.Error("video should not be a valid content type")
	}
}

func TestEngagementScore(t *testing.T) {
	c := Content{LikesCount: 2, CommentsCount: 3, Views: 10}
	if got := c.EngagementScore(); got != 22 {
		t.Errorf("expected 2*3+3*2+10 = 22, got %v", got)
	}
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Now()
	tok := RefreshToken{ExpiresAt: now.Add(time.Minute)}
	if tok.Expired(now) {
		t.Error("token should not be expired yet")
	}
	if !tok.Expired(now.Add(2 * time.Minute)) {
		t.Error("token should be expired")
	}
}

func TestHasLocation(t *testing.T) {
	lat, lon := 1.0, 2.0
	u := User{Latitude: &lat}
	if u.HasLocation() {
		t.Error("user with only latitude has no location")
	}
	u.Longitude = &lon
	if !u.HasLocation() {
		t.Error("expected location")
	}
}
