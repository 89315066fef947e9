package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubIdentity is the slice of the GitHub /user API response the linker
// needs, plus the OAuth access token obtained during the exchange. The token
// is stored on the link record so later GitHub API calls on the user's behalf
// don't require a fresh authorization.
type GitHubIdentity struct {
	ID          int64  `json:"id"`         // GitHub's numeric user ID, stable across renames
	Login       string `json:"login"`      // GitHub username
	AvatarURL   string `json:"avatar_url"` // profile picture URL
	AccessToken string `json:"-"`          // filled in from the token exchange, never unmarshalled
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow: redirect the user to GitHub, receive a short-lived code on the
// callback, exchange it server-side for a token, then fetch the profile.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider with the given OAuth app
// credentials. callbackURL must exactly match the callback registered with
// the GitHub OAuth app.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL for the given state value.
// The state is generated per request, stored in a cookie, and checked on the
// callback to reject forged flows.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a GitHubIdentity: it performs the
// server-to-server token exchange, then calls GitHub's /user endpoint with
// the resulting token.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubIdentity, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that attaches the bearer
	// token to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var identity GitHubIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if identity.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	identity.AccessToken = oauthToken.AccessToken
	return &identity, nil
}
