package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
)

// OAuthConfig holds the identity-provider client settings for the bridge.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewOAuth2Config builds the oauth2 configuration requesting the default
// bridge scopes.
func NewOAuth2Config(cfg OAuthConfig) *oauth2.Config {
	redirect := cfg.RedirectURL
	if redirect == "" {
		redirect = "urn:ietf:wg:oauth:2.0:oob"
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     goauth.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}
}

// AuthCodeURL returns the consent URL a user must visit to link a Google
// account.
func AuthCodeURL(conf *oauth2.Config) string {
	return conf.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeAndStore trades an authorization code for tokens and saves them
// for the session. Used by the authorize command and the OAuth callback.
func ExchangeAndStore(ctx context.Context, conf *oauth2.Config, store TokenStore, sessionID, authCode string) error {
	token, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := store.SaveToken(ctx, sessionID, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GrantedScopes returns the space-separated scope list Google attached to
// the token, or "" when the grant is unknown.
func GrantedScopes(token *oauth2.Token) string {
	if token == nil {
		return ""
	}
	if s, ok := token.Extra("scope").(string); ok {
		return s
	}
	return ""
}
