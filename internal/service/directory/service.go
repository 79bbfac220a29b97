package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/repository"
	apperrors "github.com/jwalitptl/bookmed-api/pkg/errors"
)

// Specializations is the fixed set of medical specialties offered at
// registration and exposed on /specializations.
var Specializations = []string{
	"Cardiology",
	"Dermatology",
	"Emergency Medicine",
	"Family Medicine",
	"Gastroenterology",
	"General Surgery",
	"Internal Medicine",
	"Neurology",
	"Obstetrics and Gynecology",
	"Oncology",
	"Ophthalmology",
	"Orthopedics",
	"Otolaryngology",
	"Pediatrics",
	"Psychiatry",
	"Pulmonology",
	"Radiology",
	"Urology",
}

const (
	profileCacheTTL = 5 * time.Minute
	cacheCleanup    = 10 * time.Minute
)

// Service serves directory lookups. Doctor profiles are cached with a
// short TTL; the cache is injected state owned by the service, never
// consulted as a fallback for failed reads.
type Service struct {
	repo  repository.UserRepository
	cache *gocache.Cache
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(profileCacheTTL, cacheCleanup),
	}
}

// FindDoctors returns a page of the doctor directory.
func (s *Service) FindDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.User, int, error) {
	filters.Normalize()

	doctors, total, err := s.repo.ListDoctors(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, total, nil
}

// GetUser fetches a user by id, serving repeated profile reads from cache.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.User), nil
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	s.cache.Set(id.String(), user, gocache.DefaultExpiration)
	return user, nil
}

// GetDoctor fetches one doctor's public profile. Non-doctor accounts are
// not part of the directory and read as not found.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("doctor not found")
		}
		return nil, err
	}
	if user.Role != model.RoleDoctor {
		return nil, apperrors.NotFound("doctor not found")
	}
	return user, nil
}

// ListSpecializations returns the static specialty enumeration.
func (s *Service) ListSpecializations(_ context.Context) []string {
	return Specializations
}
