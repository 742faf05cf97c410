package service

import (
	"net/mail"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/auth"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

const (
	minPasswordLen = 6
	maxNameLen     = 50
	maxHandleBase  = 20
)

type AuthService struct {
	store  *store.Store
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewAuthService(st *store.Store, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{store: st, tokens: tokens, logger: logger}
}

type AuthResponse struct {
	Token  string `json:"token"`
	UserID int    `json:"auth_user_id"`
}

// Register creates a user with a derived handle and opens a session. The
// first user to register becomes the global owner.
func (s *AuthService) Register(email, password, nameFirst, nameLast string) (*AuthResponse, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.InvalidInputf("invalid email address")
	}
	if len(password) < minPasswordLen {
		return nil, domain.InvalidInputf("password must be at least %d characters", minPasswordLen)
	}
	if len(nameFirst) < 1 || len(nameFirst) > maxNameLen {
		return nil, domain.InvalidInputf("first name must be 1-%d characters", maxNameLen)
	}
	if len(nameLast) < 1 || len(nameLast) > maxNameLen {
		return nil, domain.InvalidInputf("last name must be 1-%d characters", maxNameLen)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	sessionID := uuid.NewString()
	err = s.store.Update(func(st *store.State) error {
		if _, taken := st.UserByEmail(email); taken {
			return domain.InvalidInputf("email already registered")
		}

		perm := domain.PermMember
		if len(st.Users) == 0 {
			perm = domain.PermOwner
		}

		user = &domain.User{
			ID:           st.NewUserID(),
			Email:        email,
			NameFirst:    nameFirst,
			NameLast:     nameLast,
			Handle:       deriveHandle(st, nameFirst, nameLast),
			PasswordHash: hash,
			Permission:   perm,
		}
		st.Users[user.ID] = user
		st.EmailIndex[email] = user.ID
		st.HandleIndex[user.Handle] = user.ID
		st.Sessions[sessionID] = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int("u_id", user.ID), zap.String("handle", user.Handle))
	return &AuthResponse{Token: token, UserID: user.ID}, nil
}

// Login opens a new session for an existing user.
func (s *AuthService) Login(email, password string) (*AuthResponse, error) {
	var uID int
	sessionID := uuid.NewString()
	err := s.store.Update(func(st *store.State) error {
		user, ok := st.UserByEmail(email)
		if !ok || !auth.VerifyPassword(password, user.PasswordHash) {
			return domain.InvalidInputf("incorrect email or password")
		}
		uID = user.ID
		st.Sessions[sessionID] = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(uID, sessionID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, UserID: uID}, nil
}

// Logout revokes the session the request authenticated with. The token
// stops resolving immediately.
func (s *AuthService) Logout(uID int, sessionID string) error {
	return s.store.Update(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		delete(st.Sessions, sessionID)
		return nil
	})
}

// Authenticate resolves a raw token to an active (user, session) pair. This
// is the Unauthenticated gate every request passes before any other check.
func (s *AuthService) Authenticate(token string) (uID int, sessionID string, err error) {
	uID, sessionID, err = s.tokens.Resolve(token)
	if err != nil {
		return 0, "", err
	}
	err = s.store.View(func(st *store.State) error {
		owner, ok := st.Sessions[sessionID]
		if !ok || owner != uID {
			return domain.Unauthenticatedf("session revoked")
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	return uID, sessionID, nil
}

// RequestPasswordReset issues a reset code and revokes every session of the
// user, logging them out everywhere. The code is returned to the caller for
// delivery; an unknown email is not an error (no account probing).
func (s *AuthService) RequestPasswordReset(email string) (string, error) {
	code := uuid.NewString()
	issued := false
	err := s.store.Update(func(st *store.State) error {
		user, ok := st.UserByEmail(email)
		if !ok {
			return nil
		}
		st.RevokeSessionsOf(user.ID)
		st.ResetCodes[code] = user.ID
		issued = true
		return nil
	})
	if err != nil || !issued {
		return "", err
	}
	return code, nil
}

// ResetPassword consumes a reset code and installs the new password.
func (s *AuthService) ResetPassword(code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return domain.InvalidInputf("password must be at least %d characters", minPasswordLen)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.Update(func(st *store.State) error {
		uID, ok := st.ResetCodes[code]
		if !ok {
			return domain.InvalidInputf("invalid reset code")
		}
		user, ok := st.UserByID(uID)
		if !ok {
			delete(st.ResetCodes, code)
			return domain.InvalidInputf("invalid reset code")
		}
		user.PasswordHash = hash
		delete(st.ResetCodes, code)
		return nil
	})
}

// deriveHandle builds the lowercase alphanumeric concatenation of the
// names, cut to 20 chars, then appends the smallest numeric suffix that
// makes it unique. The suffix may push past 20.
func deriveHandle(st *store.State, nameFirst, nameLast string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(nameFirst + nameLast) {
		if unicode.IsLetter(r) && r <= unicode.MaxASCII || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) > maxHandleBase {
		base = base[:maxHandleBase]
	}

	handle := base
	for i := 0; ; i++ {
		if _, taken := st.UserByHandle(handle); !taken {
			return handle
		}
		handle = base + strconv.Itoa(i)
	}
}
