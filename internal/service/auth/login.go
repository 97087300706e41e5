package auth

import (
	"errors"

	"github.com/google/uuid"
	"github.com/tinkerborg/otaupdate/internal/model"
	"github.com/tinkerborg/otaupdate/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const dashboardTokenType = "dashboard"

const bootstrapUsername = "admin"

// EnsureBootstrapUser creates the single admin account from
// ADMIN_BOOTSTRAP_PASSWORD if no dashboard user exists yet. Subsequent
// boots are no-ops so the configured password only matters the first
// time the server starts against an empty database.
func (s *Service) EnsureBootstrapUser(bootstrapPassword string) error {
	existing := []model.DashboardUser{}
	if err := s.store.List(&existing); err != nil {
		return err
	}

	if len(existing) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrapPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &model.DashboardUser{
		ID:           uuid.New().String(),
		Username:     bootstrapUsername,
		PasswordHash: string(hash),
	}

	return s.store.Create(user)
}

// Login verifies username/password against the dashboard_user table and
// issues a bearer JWT on success.
func (s *Service) Login(username, password string) (string, error) {
	user := &model.DashboardUser{Username: username}

	if err := s.store.Read(user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errors.New("invalid credentials")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	return s.CreateToken(user.ID, dashboardTokenType)
}
