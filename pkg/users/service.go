// Package users implements registration and credential verification.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cabinetfs/cabinet/internal/logger"
	"github.com/cabinetfs/cabinet/pkg/queue"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/cabinetfs/cabinet/pkg/worker"
)

// Service verifies credentials and registers accounts.
//
// Passwords are stored as bcrypt digests: salted and deliberately slow.
// Verification is find-by-email then compare, and every mismatch (unknown
// email or wrong password) produces the same negative result, so the
// outcome leaks nothing about which part failed.
type Service struct {
	store    metadata.Store
	queue    queue.Queue
	hashCost int
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost to stay
// fast; production keeps the default.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// NewService creates a user service over the given store and queue.
func NewService(store metadata.Store, q queue.Queue, opts ...Option) *Service {
	s := &Service{
		store:    store,
		queue:    q,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account and enqueues a welcome job.
//
// The welcome enqueue is fire-and-forget: the account exists once the store
// insert succeeds, so an enqueue failure is logged and swallowed rather than
// failing an otherwise completed registration.
func (s *Service) Register(ctx context.Context, email, password string) (*metadata.User, error) {
	if email == "" {
		return nil, metadata.ErrMissingEmail
	}
	if password == "" {
		return nil, metadata.ErrMissingPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &metadata.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(worker.WelcomeJob{UserID: user.ID})
	if err == nil {
		err = s.queue.Enqueue(ctx, worker.TopicWelcome, payload)
	}
	if err != nil {
		logger.Warn("failed to enqueue welcome job for user %s: %v", user.ID, err)
	}

	return user, nil
}

// Verify checks an email/password pair. The boolean is false on any
// mismatch; that outcome is not an error.
func (s *Service) Verify(ctx context.Context, email, password string) (*metadata.User, bool, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, false, nil
	}
	return user, true, nil
}

// GetByID returns the user with the given id, or metadata.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*metadata.User, error) {
	return s.store.UserByID(ctx, id)
}
