package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/cppla/sharehub/config"
)

// OAuthProvider runs the authorization-code flow against one external identity provider.
type OAuthProvider struct {
	Name string

	conf    *oauth2.Config
	client  *http.Client
	profile func(ctx context.Context, get getJSONFunc) (*OAuthProfile, error)
}

type getJSONFunc func(url string, out interface{}) error

// OAuthProviders returns the providers that have credentials in cfg, keyed by lowercase name.
func OAuthProviders(cfg config.AppConfig) map[string]*OAuthProvider {
	client := &http.Client{Timeout: 10 * time.Second}
	callback := func(name string) string {
		return strings.TrimRight(cfg.OAuthRedirectBase, "/") + "/api/auth/oauth/" + name + "/callback"
	}

	providers := map[string]*OAuthProvider{}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		providers["github"] = &OAuthProvider{
			Name:   "github",
			client: client,
			conf: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  callback("github"),
				Scopes:       []string{"read:user", "user:email"},
				Endpoint:     github.Endpoint,
			},
			profile: githubProfile("https://api.github.com"),
		}
	}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers["google"] = &OAuthProvider{
			Name:   "google",
			client: client,
			conf: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  callback("google"),
				Scopes:       []string{"openid", "profile", "email"},
				Endpoint:     google.Endpoint,
			},
			profile: googleProfile("https://www.googleapis.com/oauth2/v2/userinfo"),
		}
	}
	return providers
}

// AuthCodeURL is where the user is sent to grant access; state comes back on the callback.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for the provider's view of the user.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*OAuthProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, ErrValidation("Failed to exchange code")
	}
	// the oauth2 client attaches the access token to every request
	hc := p.conf.Client(ctx, tok)
	get := func(url string, out interface{}) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.WithStack(err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := hc.Do(req)
		if err != nil {
			return errors.Wrapf(err, "GET %s", url)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("GET %s: %s", url, resp.Status)
		}
		return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s", url)
	}
	prof, err := p.profile(ctx, get)
	if err != nil {
		return nil, ErrServer(errors.Wrapf(err, "%s profile", p.Name))
	}
	prof.Provider = p.Name
	return prof, nil
}

func githubProfile(apiBase string) func(context.Context, getJSONFunc) (*OAuthProfile, error) {
	return func(_ context.Context, get getJSONFunc) (*OAuthProfile, error) {
		var u struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := get(apiBase+"/user", &u); err != nil {
			return nil, err
		}
		prof := &OAuthProfile{
			ID:        strconv.FormatInt(u.ID, 10),
			Username:  u.Login,
			Email:     u.Email,
			AvatarURL: u.AvatarURL,
		}
		// the public profile email carries no verification flag; only /user/emails does
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := get(apiBase+"/user/emails", &emails); err != nil {
			return prof, nil
		}
		var primary string
		for _, e := range emails {
			if !e.Verified {
				continue
			}
			if u.Email != "" && strings.EqualFold(e.Email, u.Email) {
				prof.EmailVerified = true
				return prof, nil
			}
			if e.Primary {
				primary = e.Email
			}
		}
		if primary != "" {
			prof.Email, prof.EmailVerified = primary, true
		}
		return prof, nil
	}
}

func googleProfile(userInfoURL string) func(context.Context, getJSONFunc) (*OAuthProfile, error) {
	return func(_ context.Context, get getJSONFunc) (*OAuthProfile, error) {
		var u struct {
			ID            string `json:"id"`
			Email         string `json:"email"`
			VerifiedEmail bool   `json:"verified_email"`
			Name          string `json:"name"`
			Picture       string `json:"picture"`
		}
		if err := get(userInfoURL, &u); err != nil {
			return nil, err
		}
		username := u.Name
		if at := strings.IndexByte(u.Email, '@'); at > 0 {
			username = u.Email[:at]
		}
		return &OAuthProfile{
			ID:            u.ID,
			Username:      username,
			Email:         u.Email,
			EmailVerified: u.VerifiedEmail,
			AvatarURL:     u.Picture,
		}, nil
	}
}
