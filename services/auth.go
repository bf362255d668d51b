package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/utils"
)

// AuthService registers identities, issues tokens and resolves bearer tokens back to identities.
type AuthService struct {
	users store.UserStore
	Now   func() time.Time
}

func NewAuthService(users store.UserStore) *AuthService {
	return &AuthService{users: users, Now: time.Now}
}

// RegisterInput carries a local account signup.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// OAuthProfile is the identity returned by an external provider.
type OAuthProfile struct {
	Provider      string
	ID            string
	Username      string
	Email         string
	AvatarURL     string
	EmailVerified bool // the provider confirmed the address belongs to this account
}

// Register creates a local identity and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if l := len([]rune(username)); l < 3 || l > 30 {
		return nil, "", ErrValidation("Username must be 3-30 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrValidation("Invalid email")
	}
	if len(in.Password) < utils.MinPasswordLength {
		return nil, "", ErrValidation("Password must be at least 6 characters")
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, "", ErrValidation("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrServer(err)
	}
	if _, err := s.users.FindUserByUsername(ctx, username); err == nil {
		return nil, "", ErrValidation("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrServer(err)
	}

	hash, err := utils.HashPassword(in.Password)
	if errors.Is(err, utils.ErrPasswordLength) {
		return nil, "", ErrValidation("Password is too long")
	} else if err != nil {
		return nil, "", ErrServer(err)
	}

	now := s.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Bookmarks:    models.IDSet{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", ErrValidation("User already exists")
		}
		return nil, "", ErrServer(err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, 0)
	if err != nil {
		return nil, "", ErrServer(err)
	}
	return user, token, nil
}

// Login checks credentials. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrValidation("Invalid credentials")
		}
		return nil, "", ErrServer(err)
	}
	if user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrValidation("Invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID, user.Username, 0)
	if err != nil {
		return nil, "", ErrServer(err)
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its identity. Every failure is reported as
// the same Unauthenticated error; the cause is only kept for logging.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated(errors.New("missing token"))
	}
	if utils.IsTokenBlacklisted(token) {
		return nil, ErrUnauthenticated(errors.New("token revoked"))
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, ErrUnauthenticated(err)
	}
	user, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUnauthenticated(err)
	}
	return user, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(token string) error {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return ErrUnauthenticated(err)
	}
	// ParseToken requires exp, so ExpiresAt is set
	utils.BlacklistToken(token, claims.ExpiresAt.Time)
	return nil
}

// OAuthLogin finds the identity linked to the provider account, creating one on first login.
func (s *AuthService) OAuthLogin(ctx context.Context, p OAuthProfile) (*models.User, string, error) {
	if p.Provider == "" || p.ID == "" {
		return nil, "", ErrValidation("Invalid provider profile")
	}

	user, err := s.users.FindUserByProvider(ctx, p.Provider, p.ID)
	switch {
	case err == nil:
		if user.ProfilePicture == "" && p.AvatarURL != "" {
			user.ProfilePicture = p.AvatarURL
			if err := s.users.SaveUser(ctx, user); err != nil {
				utils.Sugar.Warnf("oauth avatar refresh failed user=%s err=%v", user.ID, err)
			}
		}
	case errors.Is(err, store.ErrNotFound):
		user, err = s.createOAuthUser(ctx, p)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", ErrServer(err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, 0)
	if err != nil {
		return nil, "", ErrServer(err)
	}
	return user, token, nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, p OAuthProfile) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || !p.EmailVerified {
		// an address the provider does not vouch for is neither stored nor used for linking
		email = fmt.Sprintf("%s+%s@oauth.local", p.Provider, p.ID)
	}
	// an existing account with the same verified email is linked instead of duplicated
	if existing, err := s.users.FindUserByEmail(ctx, email); err == nil {
		existing.Provider = p.Provider
		existing.ProviderID = p.ID
		if existing.ProfilePicture == "" {
			existing.ProfilePicture = p.AvatarURL
		}
		if err := s.users.SaveUser(ctx, existing); err != nil {
			return nil, ErrServer(err)
		}
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, ErrServer(err)
	}

	username, err := s.ensureUniqueUsername(ctx, p.Username, p.Provider, p.ID)
	if err != nil {
		return nil, ErrServer(err)
	}
	now := s.Now()
	user := &models.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		ProfilePicture: p.AvatarURL,
		Bookmarks:      models.IDSet{},
		Provider:       p.Provider,
		ProviderID:     p.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, ErrServer(err)
	}
	return user, nil
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if at := strings.Index(input, "@"); at > 0 {
		input = input[:at]
	}
	var builder strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			builder.WriteRune('_')
		}
	}
	result := strings.Trim(builder.String(), "_")
	if len(result) > 24 {
		result = result[:24]
	}
	return result
}

func (s *AuthService) ensureUniqueUsername(ctx context.Context, base, provider, id string) (string, error) {
	base = sanitizeUsername(base)
	if len(base) < 3 {
		base = sanitizeUsername(fmt.Sprintf("%s_%s", provider, id))
		if len(base) < 3 {
			base = fmt.Sprintf("user_%s", id)
		}
	}

	candidate := base
	for suffix := 1; ; suffix++ {
		_, err := s.users.FindUserByUsername(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
	}
}
