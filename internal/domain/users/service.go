package users

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

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByEmail(ctx, email)
}

// EnsureByEmail devuelve el perfil, creándolo como tutor la primera vez
// que el usuario toca el servicio.
func (s *Service) EnsureByEmail(ctx context.Context, email, fullName string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, ErrInvalidInput
	}

	if u, err := s.repo.GetByEmail(ctx, email); err == nil {
		return u, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	now := s.now()
	u := User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		UserType:  TypeTutor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

type UpdateProfileInput struct {
	// Punteros para PATCH real: nil = no tocar.
	FullName *string
	UserType *string
}

func (s *Service) UpdateProfile(ctx context.Context, email string, in UpdateProfileInput) (User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}

	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.UserType != nil {
		switch UserType(strings.TrimSpace(*in.UserType)) {
		case TypeTutor:
			u.UserType = TypeTutor
		case TypeVeterinario:
			u.UserType = TypeVeterinario
		default:
			return User{}, ErrInvalidInput
		}
	}

	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// MarkVeterinarian marca el perfil como veterinario con setup completo.
// Se llama al aceptar una invitación; crea el perfil si aún no existe.
// Idempotente.
func (s *Service) MarkVeterinarian(ctx context.Context, email, fullName string) (User, error) {
	u, err := s.EnsureByEmail(ctx, email, fullName)
	if err != nil {
		return User{}, err
	}

	if u.UserType == TypeVeterinario && u.ProfileSetupComplete {
		return u, nil
	}

	u.UserType = TypeVeterinario
	u.ProfileSetupComplete = true
	if strings.TrimSpace(u.FullName) == "" {
		u.FullName = strings.TrimSpace(fullName)
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
