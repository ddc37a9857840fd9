// Package auth provides registration, login, and the authorization checks
// behind every authenticated request.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/1020robert/delph-merch/internal/apperr"
	"github.com/1020robert/delph-merch/internal/config"
	"github.com/1020robert/delph-merch/internal/models"
	"github.com/1020robert/delph-merch/internal/services/notify"
	"github.com/1020robert/delph-merch/internal/session"
	"github.com/1020robert/delph-merch/internal/storage"
)

// Service handles authentication and authorization operations
type Service struct {
	cfg      *config.Config
	users    *storage.UserRepository
	sessions session.Store
	notifier *notify.Notifier
	log      zerolog.Logger
}

// NewService creates a new auth service
func NewService(cfg *config.Config, users *storage.UserRepository, sessions session.Store, notifier *notify.Notifier, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		notifier: notifier,
		log:      log,
	}
}

// RegisterInput contains registration data
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Initials  string
}

// LoginResult contains the signed-in user and their new session
type LoginResult struct {
	User    *models.User
	Token   string
	Expires time.Time
}

// Register creates a member account and signs it in. Registering an email
// that already has an account signs into that account instead, merging any
// resubmitted profile fields, so a member who forgot they registered is
// never locked out.
func (s *Service) Register(input RegisterInput) (*LoginResult, error) {
	email := models.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("a valid email address is required")
	}
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" || last == "" {
		return nil, apperr.Validation("first and last name are required")
	}
	initials := models.NormalizeInitials(input.Initials)
	if !models.ValidInitials(initials) {
		return nil, apperr.Validation("initials must be 1 to 5 letters")
	}

	var user *models.User
	created := false
	err := s.users.Mutate(func(users []models.User) ([]models.User, error) {
		now := time.Now().UTC()
		for i := range users {
			if users[i].Email == email {
				mergeProfile(&users[i], first, last, initials)
				users[i].LastLoginAt = &now
				existing := users[i]
				user = &existing
				return users, nil
			}
		}
		u := models.NewUser(email, first, last, initials)
		u.LastLoginAt = &now
		user = u
		created = true
		return append(users, *u), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	result, err := s.startSession(user)
	if err != nil {
		return nil, err
	}

	if created {
		s.log.Info().Str("userId", user.ID).Str("email", user.Email).Msg("member registered")
		if s.cfg.RequireApproval && !s.cfg.IsOwner(user.Email) {
			s.notifier.ApprovalRequested(user)
		}
	}
	return result, nil
}

// Login signs an existing member in by email.
func (s *Service) Login(email string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}

	var user *models.User
	err := s.users.Mutate(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].Email == email {
				backfillProfile(&users[i])
				now := time.Now().UTC()
				users[i].LastLoginAt = &now
				existing := users[i]
				user = &existing
				return users, nil
			}
		}
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("no account found for %s", email)
	}

	return s.startSession(user)
}

// VerifyPassword checks the shared site password against the caller's
// session. On success the session carries the verification for its lifetime.
func (s *Service) VerifyPassword(token, password string) error {
	if !s.cfg.GateEnabled() {
		return apperr.Unavailable("the site password is not configured")
	}
	if _, ok := s.sessions.Resolve(token); !ok {
		return apperr.Unauthorized("not signed in")
	}
	if !s.checkGatePassword(password) {
		return apperr.Unauthorized("incorrect password")
	}
	if !s.sessions.MarkVerified(token) {
		return apperr.Unauthorized("not signed in")
	}
	return nil
}

// ResolveToken turns a presented token into the member behind it. An account
// that no longer exists takes all of its sessions down with it.
func (s *Service) ResolveToken(token string) (*models.User, *session.Session, error) {
	if token == "" {
		return nil, nil, apperr.Unauthorized("not signed in")
	}
	sess, ok := s.sessions.Resolve(token)
	if !ok {
		return nil, nil, apperr.Unauthorized("not signed in")
	}
	user, err := s.users.FindByID(sess.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		s.sessions.RevokeUser(sess.UserID)
		return nil, nil, apperr.Unauthorized("not signed in")
	}
	return user, sess, nil
}

// Logout revokes the presented session token.
func (s *Service) Logout(token string) {
	if token != "" {
		s.sessions.Revoke(token)
	}
}

// FullAccess reports whether the session cleared the password gate and the
// account holds, or does not need, approval.
func (s *Service) FullAccess(user *models.User, sess *session.Session) error {
	if user == nil || sess == nil {
		return apperr.Unauthorized("not signed in")
	}
	if s.cfg.GateEnabled() && !sess.PasswordVerified {
		return apperr.Forbidden("password verification required")
	}
	if !s.ApprovalGranted(user) {
		return apperr.Forbidden("account pending approval")
	}
	return nil
}

// ApprovalGranted reports whether user passes the approval check, whether by
// explicit approval, by being the owner, or because approval is not required.
func (s *Service) ApprovalGranted(user *models.User) bool {
	if !s.cfg.RequireApproval {
		return true
	}
	return user.Approved || s.cfg.IsOwner(user.Email)
}

// IsOwner reports whether user is the configured owner.
func (s *Service) IsOwner(user *models.User) bool {
	return user != nil && s.cfg.IsOwner(user.Email)
}

// RequireOwner rejects anyone other than the configured owner.
func (s *Service) RequireOwner(user *models.User) error {
	if user == nil {
		return apperr.Unauthorized("not signed in")
	}
	if !s.cfg.IsOwner(user.Email) {
		return apperr.Forbidden("owner access required")
	}
	return nil
}

// Approve marks a member as approved. Approving twice keeps the original
// stamp. Only the owner may approve.
func (s *Service) Approve(actingOwner *models.User, userID string) (*models.User, error) {
	if err := s.RequireOwner(actingOwner); err != nil {
		return nil, err
	}

	var approved *models.User
	err := s.users.Mutate(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == userID {
				if !users[i].Approved {
					now := time.Now().UTC()
					users[i].Approved = true
					users[i].ApprovedAt = &now
					users[i].ApprovedBy = actingOwner.Email
				}
				existing := users[i]
				approved = &existing
				return users, nil
			}
		}
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	if approved == nil {
		return nil, apperr.NotFound("no member with id %s", userID)
	}

	s.log.Info().Str("userId", approved.ID).Str("by", actingOwner.Email).Msg("member approved")
	return approved, nil
}

// ListUsers returns every member record. Only the owner may list.
func (s *Service) ListUsers(actingOwner *models.User) ([]models.User, error) {
	if err := s.RequireOwner(actingOwner); err != nil {
		return nil, err
	}
	return s.users.All()
}

func (s *Service) startSession(user *models.User) (*LoginResult, error) {
	token, err := s.sessions.Issue(user.ID, !s.cfg.GateEnabled())
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return &LoginResult{
		User:    user,
		Token:   token,
		Expires: time.Now().UTC().Add(s.cfg.SessionDuration),
	}, nil
}

// checkGatePassword compares a candidate against the configured site
// password in constant time. The configured value may be a bcrypt hash.
func (s *Service) checkGatePassword(candidate string) bool {
	secret := s.cfg.GatePassword
	if strings.HasPrefix(secret, "$2a$") || strings.HasPrefix(secret, "$2b$") || strings.HasPrefix(secret, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(candidate)) == 1
}

// mergeProfile overlays resubmitted registration fields onto an existing
// record, keeping whatever the resubmission left blank.
func mergeProfile(u *models.User, first, last, initials string) {
	if first != "" {
		u.FirstName = first
	}
	if last != "" {
		u.LastName = last
	}
	if initials != "" {
		u.Initials = initials
	}
	u.Name = u.DisplayName()
}

// backfillProfile fills name parts and initials on records created before
// those fields existed.
func backfillProfile(u *models.User) {
	if u.FirstName == "" && u.LastName == "" && u.Name != "" {
		u.FirstName, u.LastName = models.SplitDisplayName(u.Name)
	}
	if u.Name == "" {
		u.Name = u.DisplayName()
	}
	if u.Initials == "" {
		u.Initials = models.SuggestInitials(u.FirstName, u.LastName)
	}
}
