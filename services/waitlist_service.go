package services

import (
	"context"
	"strings"

	"github.com/simplesign/simplesign/models"
	"github.com/simplesign/simplesign/repositories"
)

// WaitlistService interface defines waitlist signup logic
type WaitlistService interface {
	Join(ctx context.Context, form *models.WaitlistForm) error
	Count(ctx context.Context) (int, error)
}

// waitlistService implements WaitlistService interface
type waitlistService struct {
	repo repositories.WaitlistRepository
}

// NewWaitlistService creates a new waitlist service
func NewWaitlistService(repo repositories.WaitlistRepository) WaitlistService {
	return &waitlistService{repo: repo}
}

// Join records an interested email address; duplicates are accepted quietly
func (s *waitlistService) Join(ctx context.Context, form *models.WaitlistForm) error {
	if errs := form.Validate(); len(errs) > 0 {
		return models.NewValidationError("%s", strings.Join(errs, "; "))
	}
	return s.repo.Create(ctx, strings.ToLower(strings.TrimSpace(form.Email)))
}

// Count returns the number of waitlist signups
func (s *waitlistService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
