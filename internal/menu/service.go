package menu

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"tokyojung/internal/core"
	"tokyojung/internal/events"
	"tokyojung/internal/models"
)

type Service struct {
	repo      *Repo
	publisher events.Publisher
}

func NewService(repo *Repo, publisher events.Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// GetAll is the public menu read: available items only.
func (s *Service) GetAll(ctx context.Context) ([]models.MenuItem, error) {
	return s.repo.ListAvailable(ctx)
}

// GetAllForStaff returns every item, including unavailable ones.
func (s *Service) GetAllForStaff(ctx context.Context) ([]models.MenuItem, error) {
	return s.repo.ListAll(ctx)
}

// GetByID returns the item or nil when unknown.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if core.CodeOf(err) == core.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.MenuItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, core.Field("name", "name must not be empty")
	}
	if !models.ValidCategory(in.Category) {
		return nil, core.Field("category", "unknown category %q", in.Category)
	}
	if in.Price.Cmp(decimal.Zero) <= 0 {
		return nil, core.Field("price", "price must be positive")
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.MenuItem, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			return nil, core.Field("name", "name must not be empty")
		}
		in.Name = &trimmed
	}
	if in.Category != nil && !models.ValidCategory(*in.Category) {
		return nil, core.Field("category", "unknown category %q", *in.Category)
	}
	if in.Price != nil && in.Price.Cmp(decimal.Zero) <= 0 {
		return nil, core.Field("price", "price must be positive")
	}
	return s.repo.Update(ctx, id, in)
}

// UpdateAvailability toggles the flag, appends the audit row and notifies the
// staff channel once the transaction has committed.
func (s *Service) UpdateAvailability(ctx context.Context, id int64, available bool, reason string) (*models.MenuItem, error) {
	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}

	item, err := s.repo.SetAvailability(ctx, id, available, reasonPtr)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish([]string{events.StaffTopic}, models.Event{
		Type:    models.EventMenuAvailability,
		At:      item.UpdatedAt,
		Payload: item,
	})
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
