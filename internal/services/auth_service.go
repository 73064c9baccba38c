package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/reddit-feed/backend/internal/auth"
	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 3

// FirebaseVerifier checks Firebase ID tokens. *auth.Client satisfies it.
type FirebaseVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// AuthService owns account registration, login and password resets.
type AuthService struct {
	users    repositories.UserRepository
	tokens   repositories.TokenRepository
	issuer   *auth.TokenIssuer
	mailer   auth.Mailer
	firebase FirebaseVerifier
	appURL   string
	log      *slog.Logger
}

// NewAuthService creates an AuthService. firebase may be nil, in which case
// Firebase login is disabled.
func NewAuthService(
	users repositories.UserRepository,
	tokens repositories.TokenRepository,
	issuer *auth.TokenIssuer,
	mailer auth.Mailer,
	firebase FirebaseVerifier,
	appURL string,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		issuer:   issuer,
		mailer:   mailer,
		firebase: firebase,
		appURL:   strings.TrimRight(appURL, "/"),
		log:      logging.GetLogger("services.auth"),
	}
}

// Session is an authenticated user together with its bearer token.
type Session struct {
	User  *models.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, models.NewValidationError("Duplicated username or email!", "username", "Username already taken!")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, models.NewValidationError("Duplicated username or email!", "email", "Email already taken!")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: req.Username, Email: req.Email, Password: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, &models.ValidationError{Message: "Duplicated username or email!"}
		}
		return nil, err
	}
	s.log.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return s.session(user)
}

// Login accepts either a username or an email address.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(req.UsernameOrEmail, "@") {
		user, err = s.users.GetUserByEmail(ctx, req.UsernameOrEmail)
	} else {
		user, err = s.users.GetUserByUsername(ctx, req.UsernameOrEmail)
	}
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewValidationError("User not found!", "usernameOrEmail", "Username or email incorrect!")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, models.NewValidationError("Wrong password!", "password", "Wrong password!")
	}
	return s.session(user)
}

// Me returns the caller, or nil for anonymous callers and deleted accounts.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, nil
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// ForgotPassword mails a reset link when email belongs to a user. Unknown
// addresses succeed silently so the endpoint does not reveal accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash reset token: %w", err)
	}
	if err := s.tokens.ReplaceToken(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/change-password?token=%s&userId=%d", s.appURL, token, user.ID)
	body := fmt.Sprintf(`<a href="%s">Click here to reset your password</a>`, link)
	if err := s.mailer.Send(ctx, user.Email, body); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) (*Session, error) {
	if len(req.NewPassword) < minPasswordLength {
		return nil, models.NewValidationError("Invalid password", "newPassword", "Length must be greater than 2")
	}

	invalidToken := models.NewValidationError("Invalid or expired password reset token", "token", "Invalid or expired password reset token")
	stored, err := s.tokens.GetToken(ctx, req.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, invalidToken
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.TokenHash), []byte(req.Token)); err != nil {
		return nil, invalidToken
	}

	user, err := s.users.GetUserByID(ctx, req.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewValidationError("User no longer exists", "token", "User no longer exists")
	}
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return nil, err
	}
	user.Password = string(hash)

	if err := s.tokens.DeleteToken(ctx, user.ID); err != nil {
		s.log.WarnContext(ctx, "reset token not deleted", slog.Uint64("user_id", uint64(user.ID)), slog.Any("error", err))
	}
	return s.session(user)
}

// FirebaseLogin exchanges a Firebase ID token for a local session, linking
// or creating the local account on first use.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*Session, error) {
	if s.firebase == nil {
		return nil, fmt.Errorf("firebase login disabled: %w", models.ErrUnavailable)
	}

	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, models.ErrInvalidToken
	}
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	user, err := s.users.GetUserByFirebaseUID(ctx, token.UID)
	if err == nil {
		return s.session(user)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if email == "" {
		return nil, models.NewValidationError("Firebase account has no email", "idToken", "An email address is required")
	}

	uid := token.UID
	user, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.FirebaseUID = &uid
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	case errors.Is(err, models.ErrNotFound):
		user, err = s.createFirebaseUser(ctx, uid, email, name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return s.session(user)
}

func (s *AuthService) createFirebaseUser(ctx context.Context, uid, email, name string) (*models.User, error) {
	// Firebase users never log in with a password; store an unguessable one.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	username := usernameFor(name, email)
	user := &models.User{Username: username, Email: email, Password: string(hash), FirebaseUID: &uid}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, models.ErrConflict) {
		user.Username = fmt.Sprintf("%s-%s", username, shortID(uid))
		err = s.users.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "user created from firebase", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func usernameFor(name, email string) string {
	candidate := strings.Join(strings.Fields(name), "_")
	if candidate == "" {
		candidate, _, _ = strings.Cut(email, "@")
	}
	candidate = strings.ReplaceAll(candidate, "@", "")
	if len(candidate) > 40 {
		candidate = candidate[:40]
	}
	return candidate
}

func shortID(uid string) string {
	if len(uid) > 6 {
		return uid[:6]
	}
	return uid
}
