package upload

import (
	"context"

	"golang.org/x/oauth2"

	"reelforge/internal/config"
	"reelforge/internal/services"
)

// exchangeToken trades the stored refresh token for an access token.
// Failure is fatal to the stage: credentials are presumed stable, so a
// rejected exchange will not succeed on retry.
func exchangeToken(ctx context.Context, cfg config.Upload) (string, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}
	source := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return "", services.Wrap(services.ErrUpload, "upload", "token", "oauth token exchange failed", err)
	}
	if token.AccessToken == "" {
		return "", services.Wrap(services.ErrUpload, "upload", "token", "token exchange returned empty access token", nil)
	}
	return token.AccessToken, nil
}
