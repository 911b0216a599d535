// Package auth holds the explicit spreadsheet session passed into every
// workflow: an access token, its refresh token, and the expiry instant.
// The engine checks expiry before talking to the remote store and allows
// exactly one refresh-and-retry per failing call; a second failure is
// terminal for that workflow.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"vedomost/internal/logger"
)

// ErrSessionExpired is returned when the credential is expired and cannot
// be refreshed. The user has to re-authenticate.
var ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь снова")

// expirySkew is how close to the expiry instant a token is already
// treated as stale, matching the pre-flight check the UI performed.
const expirySkew = 30 * time.Second

// tokenFile is the on-disk shape of a persisted session.
type tokenFile struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// Session is an explicit, refreshable bearer credential for the remote
// spreadsheet store. It implements oauth2.TokenSource, always handing out
// the currently stored token; refreshing is an explicit step so the
// caller controls the one-retry policy.
type Session struct {
	mu     sync.Mutex
	token  *oauth2.Token
	config *oauth2.Config
	path   string
	log    zerolog.Logger
}

// Load reads a persisted session from the token file.
func Load(path, clientID, clientSecret string) (*Session, error) {
	const op = "auth.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read token file: %w", op, err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%s: failed to parse token file: %w", op, err)
	}
	if tf.RefreshToken == "" && tf.AccessToken == "" {
		return nil, fmt.Errorf("%s: token file holds no credential: %w", op, ErrSessionExpired)
	}

	return &Session{
		token: &oauth2.Token{
			AccessToken:  tf.AccessToken,
			RefreshToken: tf.RefreshToken,
			Expiry:       tf.Expiry,
		},
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		},
		path: path,
		log:  logger.WithComponent("auth"),
	}, nil
}

// Token implements oauth2.TokenSource. It returns the stored token as-is;
// it never refreshes on its own.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// Valid reports whether the access token is still usable with a safety
// margin before the expiry instant.
func (s *Session) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token.AccessToken == "" {
		return false
	}
	if s.token.Expiry.IsZero() {
		return true
	}
	return time.Until(s.token.Expiry) > expirySkew
}

// EnsureValid refreshes the session when the access token is stale.
func (s *Session) EnsureValid(ctx context.Context) error {
	if s.Valid() {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new access token and persists
// the updated session. A missing refresh token or a rejected exchange is
// surfaced as ErrSessionExpired.
func (s *Session) Refresh(ctx context.Context) error {
	const op = "Refresh"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.RefreshToken == "" {
		return fmt.Errorf("%s: no refresh token: %w", op, ErrSessionExpired)
	}

	s.log.Debug().Msg("Refreshing access token")

	refreshed, err := s.config.TokenSource(ctx, &oauth2.Token{
		RefreshToken: s.token.RefreshToken,
	}).Token()
	if err != nil {
		s.log.Warn().Err(err).Msg("Token refresh rejected")
		return fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = s.token.RefreshToken
	}
	s.token = refreshed

	if err := s.persist(); err != nil {
		// The in-memory session is already usable; losing the file only
		// costs a re-login next run.
		s.log.Warn().Err(err).Msg("Failed to persist refreshed token")
	}

	s.log.Info().Time("expiry", s.token.Expiry).Msg("Session refreshed")
	return nil
}

func (s *Session) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(tokenFile{
		AccessToken:  s.token.AccessToken,
		RefreshToken: s.token.RefreshToken,
		Expiry:       s.token.Expiry,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
