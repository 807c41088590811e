package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/session"
)

// DefaultProfile is used when a CredentialStore is built with a blank profile.
const DefaultProfile = "default"

// CredentialStore is a session.Store backed by the credentials table.
// Each profile owns at most one row.
type CredentialStore struct {
	db      *gorm.DB
	profile string
}

var _ session.Store = (*CredentialStore)(nil)

// NewCredentialStore returns a store bound to profile.
func NewCredentialStore(db *gorm.DB, profile string) *CredentialStore {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = DefaultProfile
	}
	return &CredentialStore{db: db, profile: profile}
}

// Profile returns the row key this store reads and writes.
func (s *CredentialStore) Profile() string { return s.profile }

// Load returns the saved token, or "" when none is stored.
func (s *CredentialStore) Load(ctx context.Context) (string, error) {
	var c domain.Credential
	err := s.db.WithContext(ctx).First(&c, "profile = ?", s.profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.Token, nil
}

// Save upserts the token. A blank token behaves like Clear.
func (s *CredentialStore) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear(ctx)
	}
	c := domain.Credential{Profile: s.profile, Token: token, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&c).Error
}

// Clear removes the row for this profile. Clearing an empty store is not an error.
func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("profile = ?", s.profile).Delete(&domain.Credential{}).Error
}
