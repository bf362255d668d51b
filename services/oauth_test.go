package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/cppla/sharehub/config"
)

func fakeGitHub(t *testing.T, withEmail bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "at-1", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		body := map[string]interface{}{"id": 42, "login": "octocat", "avatar_url": "https://img/octo.png"}
		if withEmail {
			body["email"] = "octo@example.com"
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"email": "octo@example.com", "primary": false, "verified": true},
			{"email": "unconfirmed@example.com", "primary": false, "verified": false},
			{"email": "primary@example.com", "primary": true, "verified": true},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testGitHubProvider(srv *httptest.Server) *OAuthProvider {
	return &OAuthProvider{
		Name:   "github",
		client: srv.Client(),
		conf: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/login/oauth/authorize",
				TokenURL:  srv.URL + "/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		profile: githubProfile(srv.URL),
	}
}

func TestOAuthProvidersFromConfig(t *testing.T) {
	assert.Empty(t, OAuthProviders(config.AppConfig{}))

	providers := OAuthProviders(config.AppConfig{
		OAuthRedirectBase:  "https://share.example/",
		GitHubClientID:     "gh",
		GitHubClientSecret: "gh-secret",
		GoogleClientID:     "go",
	})
	require.Contains(t, providers, "github")
	assert.NotContains(t, providers, "google")

	u, err := url.Parse(providers["github"].AuthCodeURL("st-1"))
	require.NoError(t, err)
	assert.Equal(t, "st-1", u.Query().Get("state"))
	assert.Equal(t, "https://share.example/api/auth/oauth/github/callback", u.Query().Get("redirect_uri"))
}

func TestOAuthExchange(t *testing.T) {
	p := testGitHubProvider(fakeGitHub(t, true))
	prof, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, OAuthProfile{
		Provider:      "github",
		ID:            "42",
		Username:      "octocat",
		Email:         "octo@example.com",
		EmailVerified: true,
		AvatarURL:     "https://img/octo.png",
	}, *prof)
}

func TestOAuthExchangeFallsBackToPrimaryEmail(t *testing.T) {
	p := testGitHubProvider(fakeGitHub(t, false))
	prof, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "primary@example.com", prof.Email)
	assert.True(t, prof.EmailVerified)
}

func TestGoogleProfileVerification(t *testing.T) {
	for _, verified := range []bool{true, false} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":             "g-7",
				"email":          "ann@example.com",
				"verified_email": verified,
				"name":           "Ann",
				"picture":        "https://img/ann.png",
			})
		}))
		get := func(u string, out interface{}) error {
			resp, err := http.Get(u)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			return json.NewDecoder(resp.Body).Decode(out)
		}
		prof, err := googleProfile(srv.URL)(context.Background(), get)
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, "ann", prof.Username)
		assert.Equal(t, "ann@example.com", prof.Email)
		assert.Equal(t, verified, prof.EmailVerified)
	}
}

func TestOAuthExchangeBadCode(t *testing.T) {
	p := testGitHubProvider(fakeGitHub(t, true))
	_, err := p.Exchange(context.Background(), "bad-code")
	requireKind(t, err, KindValidation)
}
