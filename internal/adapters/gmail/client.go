// Package gmail reads the mailbox and sends reports through the Gmail API.
package gmail

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mikey/mail-topic-scanner/internal/config"
)

// Scopes requested from the OAuth client
var Scopes = []string{gmailapi.GmailReadonlyScope, gmailapi.GmailSendScope}

// NewService builds a Gmail API client from an installed-app credentials
// file and a previously authorized token file
func NewService(ctx context.Context, cfg config.GmailConfig, opts ...option.ClientOption) (*gmailapi.Service, error) {
	credentials, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Gmail credentials: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(credentials, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Gmail credentials: %w", err)
	}

	token, err := loadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	opts = append([]option.ClientOption{option.WithTokenSource(oauthCfg.TokenSource(ctx, token))}, opts...)
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Gmail token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode Gmail token: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("gmail token file %s holds no token", path)
	}
	return &token, nil
}
