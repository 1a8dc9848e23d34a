package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skaldby/link-broker/internal/models"
	"github.com/skaldby/link-broker/internal/oauth"
)

// Postgres implements oauth.Store on a gorm connection
type Postgres struct {
	db *gorm.DB
}

var _ oauth.Store = (*Postgres)(nil)

// NewPostgres creates a postgres-backed store
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// CreateUser inserts a new application user
func (s *Postgres) CreateUser(ctx context.Context) (*models.AppUser, error) {
	user := &models.AppUser{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureUser inserts the user id if it does not exist yet
func (s *Postgres) EnsureUser(ctx context.Context, userID string) error {
	user := &models.AppUser{
		ID:        userID,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).Error
}

// ListLinks returns the user's links ordered by provider name
func (s *Postgres) ListLinks(ctx context.Context, userID string) ([]models.ProviderLink, error) {
	var links []models.ProviderLink
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("provider").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// LinkByUser resolves the user's link for one provider
func (s *Postgres) LinkByUser(ctx context.Context, userID string, provider models.Provider) (*models.ProviderLink, error) {
	var link models.ProviderLink
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&link).Error
	if err == gorm.ErrRecordNotFound {
		return nil, oauth.ErrNotLinked
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// LinkByProviderAccount resolves a link by the provider-side account id
func (s *Postgres) LinkByProviderAccount(ctx context.Context, provider models.Provider, accountID string) (*models.ProviderLink, error) {
	var link models.ProviderLink
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, accountID).
		First(&link).Error
	if err == gorm.ErrRecordNotFound {
		return nil, oauth.ErrNotLinked
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// UpsertLink writes the link. Any other user's claim to the same provider
// account is removed in the same transaction, so account ownership always
// moves to the most recent writer and both uniqueness keys stay intact.
func (s *Postgres) UpsertLink(ctx context.Context, link *models.ProviderLink) error {
	link.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("provider = ? AND provider_account_id = ? AND user_id <> ?",
			link.Provider, link.ProviderAccountID, link.UserID).
			Delete(&models.ProviderLink{}).Error
		if err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"provider_account_id", "access_token", "refresh_token", "expires_at", "scope", "updated_at",
			}),
		}).Create(link).Error
	})
}

// Ping reports database reachability
func (s *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
