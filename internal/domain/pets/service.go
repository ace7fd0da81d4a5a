package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	WeightKg  *float64
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID, ownerEmail string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}

	sp, ok := parseSpecies(in.Species)
	if !ok {
		return Pet{}, ErrInvalidInput
	}
	if in.WeightKg != nil && *in.WeightKg <= 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: strings.TrimSpace(ownerUserID),
		OwnerEmail:  strings.ToLower(strings.TrimSpace(ownerEmail)),
		Name:        strings.TrimSpace(in.Name),
		Species:     sp,
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         parseSex(in.Sex),
		BirthDate:   in.BirthDate,
		WeightKg:    in.WeightKg,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

// GetMany devuelve las mascotas existentes entre los ids pedidos; los ids
// desconocidos se omiten (lectura tolerante por-ítem).
func (s *Service) GetMany(ctx context.Context, ids []string) ([]Pet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.GetMany(ctx, ids)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string
	Breed     *string
	Sex       *string
	BirthDate *time.Time
	WeightKg  *float64
	Notes     *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		p.Sex = parseSex(*in.Sex)
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.WeightKg != nil {
		if *in.WeightKg <= 0 {
			return Pet{}, ErrInvalidInput
		}
		p.WeightKg = in.WeightKg
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// SetPhoto guarda la URL devuelta por el media store.
func (s *Service) SetPhoto(ctx context.Context, id, photoURL string) (Pet, error) {
	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return Pet{}, ErrInvalidInput
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	p.PhotoURL = photoURL
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func parseSpecies(raw string) (Species, bool) {
	switch Species(strings.ToLower(strings.TrimSpace(raw))) {
	case SpeciesDog:
		return SpeciesDog, true
	case SpeciesCat:
		return SpeciesCat, true
	case SpeciesBird:
		return SpeciesBird, true
	case SpeciesOther:
		return SpeciesOther, true
	default:
		return "", false
	}
}

func parseSex(raw string) Sex {
	switch Sex(strings.ToLower(strings.TrimSpace(raw))) {
	case SexMale:
		return SexMale
	case SexFemale:
		return SexFemale
	default:
		return SexUnknown
	}
}
