package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"secure-messenger/auth"
	"secure-messenger/contract"
	"secure-messenger/errors"
	"secure-messenger/repositories"
)

type IAuthService interface {
	contract.IdentityProvider
	Register(email, password, displayName string) (contract.Identity, error)
	Login(email, password string) (contract.Identity, error)
	Logout()
}

// AuthService holds the signed-in identity of the local client and notifies watchers on every change.
type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         auth.TokenIssuer

	mu       sync.Mutex
	current  contract.Identity
	signedIn bool
	watchers map[*identityWatcher]struct{}
}

type identityWatcher struct {
	ctx context.Context
	ch  chan contract.IdentityChange
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, tokens auth.TokenIssuer) *AuthService {
	return &AuthService{
		log:            log,
		userRepository: repo,
		tokens:         tokens,
		watchers:       make(map[*identityWatcher]struct{}),
	}
}

// Register creates the account and signs it in.
func (s *AuthService) Register(email, password, displayName string) (contract.Identity, error) {
	valReq := auth.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}
	// Checked before any expensive hashing
	if err := auth.ValidateRegister(valReq); err != nil {
		return contract.Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return contract.Identity{}, fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, hashedPassword, displayName)
	if err != nil {
		return contract.Identity{}, err
	}
	s.log.Info("Account registered", "user_id", userID)

	return s.signIn(userID, displayName)
}

func (s *AuthService) Login(email, password string) (contract.Identity, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Same error as a bad password, no user enumeration
		return contract.Identity{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return contract.Identity{}, errors.ErrInvalidCredentials
	}

	return s.signIn(user.ID, user.DisplayName)
}

// Logout is a no-op when nobody is signed in.
func (s *AuthService) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signedIn {
		return
	}
	s.log.Info("Signed out", "user_id", s.current.UserID)
	s.current = contract.Identity{}
	s.signedIn = false
	s.publish(contract.IdentityChange{})
}

func (s *AuthService) Current() (contract.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.signedIn
}

// Watch yields the current state first, then every change, until ctx is done.
func (s *AuthService) Watch(ctx context.Context) <-chan contract.IdentityChange {
	w := &identityWatcher{ctx: ctx, ch: make(chan contract.IdentityChange, 16)}

	s.mu.Lock()
	w.ch <- contract.IdentityChange{Identity: s.current, SignedIn: s.signedIn}
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, w)
		close(w.ch)
	})
	return w.ch
}

func (s *AuthService) signIn(userID, displayName string) (contract.Identity, error) {
	token, err := s.tokens.GenerateToken(userID, displayName)
	if err != nil {
		return contract.Identity{}, errors.ErrTokenGeneration
	}
	identity := contract.Identity{UserID: userID, DisplayName: displayName, Token: token}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = identity
	s.signedIn = true
	s.log.Info("Signed in", "user_id", userID)
	s.publish(contract.IdentityChange{Identity: identity, SignedIn: true})
	return identity, nil
}

// publish must be called with mu held so watchers see changes in order.
func (s *AuthService) publish(change contract.IdentityChange) {
	for w := range s.watchers {
		select {
		case w.ch <- change:
		case <-w.ctx.Done():
		}
	}
}
