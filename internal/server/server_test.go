package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type fakeExchanger struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (f *fakeExchanger) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func callbackURL(base, state, code string) string {
	values := url.Values{}
	values.Set("state", state)
	if code != "" {
		values.Set("code", code)
	}
	return base + "?" + values.Encode()
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges the code and delivers the token", func(t *testing.T) {
		exchanger := &fakeExchanger{token: &oauth2.Token{AccessToken: "access-token"}}
		handler := NewOAuthHandler(exchanger, "expected-state")

		ts := httptest.NewServer(handler)
		defer ts.Close()

		resp, err := http.Get(callbackURL(ts.URL, "expected-state", "auth-code"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if len(exchanger.codes) != 1 || exchanger.codes[0] != "auth-code" {
			t.Errorf("expected the code to be exchanged, got %v", exchanger.codes)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "access-token" {
			t.Errorf("expected the exchanged token, got %q", result.Token.AccessToken)
		}
	})

	t.Run("rejects a mismatched state", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "expected-state")

		ts := httptest.NewServer(handler)
		defer ts.Close()

		resp, err := http.Get(callbackURL(ts.URL, "wrong-state", "auth-code"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", resp.StatusCode)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "state") {
			t.Errorf("expected a state error, got %v", result.Error())
		}
	})

	t.Run("surfaces an authorization denial", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "expected-state")

		ts := httptest.NewServer(handler)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "?state=expected-state&error=access_denied&error_description=user+denied")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected the denial to surface, got %v", result.Error())
		}
	})

	t.Run("surfaces an exchange failure", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{err: errors.New("upstream rejected the code")}, "expected-state")

		ts := httptest.NewServer(handler)
		defer ts.Close()

		resp, err := http.Get(callbackURL(ts.URL, "expected-state", "auth-code"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", resp.StatusCode)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "token exchange failed") {
			t.Errorf("expected an exchange error, got %v", result.Error())
		}
	})

	t.Run("ignores a replayed callback", func(t *testing.T) {
		exchanger := &fakeExchanger{token: &oauth2.Token{AccessToken: "access-token"}}
		handler := NewOAuthHandler(exchanger, "expected-state")

		ts := httptest.NewServer(handler)
		defer ts.Close()

		first, err := http.Get(callbackURL(ts.URL, "expected-state", "auth-code"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first.Body.Close()

		second, err := http.Get(callbackURL(ts.URL, "expected-state", "replayed-code"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second.Body.Close()

		if second.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400 for the replay, got %d", second.StatusCode)
		}
		if len(exchanger.codes) != 1 {
			t.Errorf("expected a single exchange, got %d", len(exchanger.codes))
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("completes a full flow", func(t *testing.T) {
		exchanger := &fakeExchanger{token: &oauth2.Token{AccessToken: "access-token"}}
		handler := NewOAuthHandler(exchanger, "expected-state")

		srv, err := NewCallbackServer("http://127.0.0.1:0/callback", handler, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := srv.Start(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer srv.Shutdown(context.Background())

		base := fmt.Sprintf("http://%s/callback", srv.Addr())
		resp, err := http.Get(callbackURL(base, "expected-state", "auth-code"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		token, err := srv.WaitForToken(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "access-token" {
			t.Errorf("expected the exchanged token, got %q", token.AccessToken)
		}
	})

	t.Run("times out without a callback", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "expected-state")

		srv, err := NewCallbackServer("http://127.0.0.1:0/callback", handler, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := srv.Start(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer srv.Shutdown(context.Background())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := srv.WaitForToken(ctx); err == nil {
			t.Error("expected a timeout error")
		}
	})

	t.Run("rejects a redirect URI without a host", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "state")
		if _, err := NewCallbackServer("/callback", handler, nil); err == nil {
			t.Error("expected an error for a host-less redirect URI")
		}
	})
}
