package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGoogle(t *testing.T, handler http.HandlerFunc) *GoogleConfig {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGoogleConfig(GoogleOAuthConfig{ClientID: "client-1", ClientSecret: "secret"})
	g.tokenInfoURL = srv.URL + "/tokeninfo"
	g.userInfoURL = srv.URL + "/userinfo"
	g.client = srv.Client()
	return g
}

func TestNewGoogleConfigDisabled(t *testing.T) {
	if g := NewGoogleConfig(GoogleOAuthConfig{}); g != nil {
		t.Fatal("expected nil config without credentials")
	}
}

func TestVerifyIDToken(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"sub":"g-1","email":"whale@example.com","aud":"client-1","name":"Whale"}`)
	})

	info, err := g.VerifyIDToken(context.Background(), "good")
	if err != nil {
		t.Fatalf("VerifyIDToken() error = %v", err)
	}
	if info.UserID() != "g-1" || info.Email != "whale@example.com" {
		t.Errorf("unexpected info %+v", info)
	}

	if _, err := g.VerifyIDToken(context.Background(), "bad"); !errors.Is(err, ErrInvalidGoogleToken) {
		t.Errorf("expected ErrInvalidGoogleToken, got %v", err)
	}
}

func TestVerifyIDTokenWrongAudience(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sub":"g-1","email":"whale@example.com","aud":"someone-else"}`)
	})

	if _, err := g.VerifyIDToken(context.Background(), "tok"); !errors.Is(err, ErrInvalidGoogleToken) {
		t.Errorf("expected audience mismatch to fail, got %v", err)
	}
}

func TestGetUserInfo(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"g-2","email":"orca@example.com","picture":"http://img"}`)
	})

	info, err := g.GetUserInfo(context.Background(), "access")
	if err != nil {
		t.Fatalf("GetUserInfo() error = %v", err)
	}
	if info.UserID() != "g-2" || info.Picture != "http://img" {
		t.Errorf("unexpected info %+v", info)
	}
}
