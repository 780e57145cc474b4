package accounts

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/session"
)

// ErrLoginFailed is returned for any unsuccessful login
var ErrLoginFailed = errors.New("login failed")

// EmptyFieldMessage is shown next to a blank login field
const EmptyFieldMessage = "Field cannot be empty"

// Credentials represents the login form
type Credentials struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// LoginResult is a successful login
type LoginResult struct {
	User   *session.User
	Tokens apiclient.Tokens
}

// Service runs the login and logout flows and owns the session writes they need
type Service struct {
	backends       *apiclient.Backends
	store          *session.Store
	secondaryUsers []string
	validate       *validator.Validate
	logger         zerolog.Logger
}

// NewService creates a new accounts service
func NewService(backends *apiclient.Backends, store *session.Store, secondaryUsers []string, logger zerolog.Logger) *Service {
	return &Service{
		backends:       backends,
		store:          store,
		secondaryUsers: secondaryUsers,
		validate:       validator.New(),
		logger:         logger,
	}
}

// Validate returns a message per invalid form field, or nil
func (s *Service) Validate(creds Credentials) map[string]string {
	err := s.validate.Struct(creds)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"form": err.Error()}
	}

	problems := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Username":
			problems["username"] = EmptyFieldMessage
		case "Password":
			problems["password"] = EmptyFieldMessage
		}
	}
	return problems
}

// Login authenticates against the primary API and, for allow-listed users,
// also against the secondary API. A secondary failure does not fail the login.
// On success the visitor's session is set; on failure it is left untouched.
func (s *Service) Login(ctx context.Context, visitor string, creds Credentials) (*LoginResult, error) {
	if problems := s.Validate(creds); problems != nil {
		return nil, fmt.Errorf("%w: invalid form", ErrLoginFailed)
	}

	primary := s.backends.Primary
	resp, err := primary.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		s.logger.Info().Err(err).Str("username", creds.Username).Msg("Login rejected")
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	user := resp.User
	if user == nil {
		user = UserFromToken(resp.AccessToken)
	}
	if user == nil {
		user, err = primary.Check(ctx, resp.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}
	}

	result := &LoginResult{
		User:   user,
		Tokens: apiclient.Tokens{Primary: resp.AccessToken},
	}

	if s.usesSecondary(creds.Username) {
		secondary, err := s.backends.Secondary.Login(ctx, creds.Username, creds.Password)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", creds.Username).Msg("Secondary login failed, continuing")
		} else {
			result.Tokens.Secondary = secondary.AccessToken
		}
	}

	s.store.SetUser(visitor, user)

	s.logger.Info().
		Str("username", user.Username).
		Bool("is_admin", user.IsAdmin).
		Bool("secondary", result.Tokens.Secondary != "").
		Msg("User logged in")

	return result, nil
}

func (s *Service) usesSecondary(username string) bool {
	return s.backends.Secondary != nil && slices.Contains(s.secondaryUsers, username)
}

// Logout clears the visitor's session and ends the API sessions of every
// held token. The session is cleared even when the API calls fail; the
// returned error is only for logging.
func (s *Service) Logout(ctx context.Context, visitor string, tokens apiclient.Tokens) error {
	s.store.Clear(visitor)
	return s.revoke(ctx, tokens)
}

// Revoke ends the API sessions of tokens without touching any visitor's
// session. Used when a new login replaces credentials still held by a browser.
func (s *Service) Revoke(ctx context.Context, tokens apiclient.Tokens) error {
	return s.revoke(ctx, tokens)
}

func (s *Service) revoke(ctx context.Context, tokens apiclient.Tokens) error {
	var errs []error
	for _, kind := range []apiclient.Backend{apiclient.Primary, apiclient.Secondary} {
		token := tokens.For(kind)
		client := s.backends.Client(kind)
		if token == "" || client == nil {
			continue
		}
		if err := client.Logout(ctx, token); err != nil {
			errs = append(errs, fmt.Errorf("%s logout: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

type tokenClaims struct {
	User *session.User `json:"user"`
	jwt.RegisteredClaims
}

// UserFromToken reads the user claim of an API token, if it carries one
func UserFromToken(token string) *session.User {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	return claims.User
}
