package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/assistkit/inboxbridge/internal/google"
)

func newAuthorizeCmd() *cobra.Command {
	var (
		googleClientID     string
		googleClientSecret string
		authCode           string
	)

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Link a Google account for the stdio transport",
		Long: `Run the Google OAuth authorization flow and store the resulting
credential locally. The serve command picks it up for the stdio
transport's session.

Without --auth-code, prints the authorization URL and reads the code
interactively. With --auth-code, exchanges the code directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if googleClientID == "" {
				googleClientID = os.Getenv("GOOGLE_CLIENT_ID")
			}
			if googleClientSecret == "" {
				googleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
			}
			if googleClientID == "" || googleClientSecret == "" {
				return fmt.Errorf("google client credentials are required (flags or GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET)")
			}

			conf := google.NewOAuth2Config(google.OAuthConfig{
				ClientID:     googleClientID,
				ClientSecret: googleClientSecret,
			})

			if authCode == "" {
				fmt.Printf("Visit this URL in your browser and sign in with your Google account:\n\n  %s\n\n", google.AuthCodeURL(conf))
				fmt.Print("Enter the authorization code: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				authCode = strings.TrimSpace(line)
			}
			if authCode == "" {
				return fmt.Errorf("no authorization code provided")
			}

			token, err := conf.Exchange(context.Background(), authCode)
			if err != nil {
				return fmt.Errorf("failed to exchange authorization code: %w", err)
			}

			path, err := saveTokenFile(token)
			if err != nil {
				return fmt.Errorf("failed to store credential: %w", err)
			}
			fmt.Printf("Google account linked. Credential stored at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret")
	cmd.Flags().StringVar(&authCode, "auth-code", "", "Authorization code obtained from the consent page")

	return cmd
}

// tokenFilePath returns the location of the stored stdio credential.
func tokenFilePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "inboxbridge", "token.json"), nil
}

func saveTokenFile(token *oauth2.Token) (string, error) {
	path, err := tokenFilePath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	data, err := json.Marshal(token)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func loadTokenFile() (*oauth2.Token, error) {
	path, err := tokenFilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
