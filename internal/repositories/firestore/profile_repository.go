package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	pfirestore "github.com/naga-sai1/inv-ecommerce/internal/platform/firestore"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const profilesCollection = "profiles"

// ProfileRepository stores shipping profiles keyed by Firebase uid.
type ProfileRepository struct {
	base *pfirestore.Collection[profileDocument]
}

// NewProfileRepository constructs a Firestore-backed profile repository.
func NewProfileRepository(provider *pfirestore.Provider) (*ProfileRepository, error) {
	if provider == nil {
		return nil, errors.New("profile repository requires firestore provider")
	}
	return &ProfileRepository{
		base: pfirestore.NewCollection[profileDocument](provider, profilesCollection),
	}, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, profile domain.Profile) error {
	if r == nil || r.base == nil {
		return errors.New("profile repository not initialised")
	}
	return r.base.Set(ctx, strings.TrimSpace(profile.UserID), profileDocument{
		FullName:   profile.FullName,
		Email:      profile.Email,
		Phone:      profile.Phone,
		Address:    profile.Address,
		City:       profile.City,
		PostalCode: profile.PostalCode,
		Country:    profile.Country,
		UpdatedAt:  profile.UpdatedAt.UTC(),
	})
}

func (r *ProfileRepository) FindByID(ctx context.Context, userID string) (domain.Profile, error) {
	if r == nil || r.base == nil {
		return domain.Profile{}, errors.New("profile repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		UserID:     doc.ID,
		FullName:   doc.Data.FullName,
		Email:      doc.Data.Email,
		Phone:      doc.Data.Phone,
		Address:    doc.Data.Address,
		City:       doc.Data.City,
		PostalCode: doc.Data.PostalCode,
		Country:    doc.Data.Country,
		UpdatedAt:  doc.Data.UpdatedAt.UTC(),
	}, nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("profile repository not initialised")
	}
	return countCollection(ctx, r.base.Ref)
}

type profileDocument struct {
	FullName   string    `firestore:"fullName"`
	Email      string    `firestore:"email"`
	Phone      string    `firestore:"phone"`
	Address    string    `firestore:"address"`
	City       string    `firestore:"city"`
	PostalCode string    `firestore:"postalCode,omitempty"`
	Country    string    `firestore:"country,omitempty"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)
