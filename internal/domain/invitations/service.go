package invitations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"pet-vet-link/internal/domain/relations"
	"pet-vet-link/internal/domain/users"
	"pet-vet-link/internal/platform/metrics"
	"pet-vet-link/internal/ports/notify"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

var validate = validator.New()

type Service struct {
	repo      Repository
	relations *relations.Service
	users     *users.Service
	mailer    notify.Mailer // puede ser nil (sin SMTP configurado)

	log zerolog.Logger
	now func() time.Time

	inviteTTL time.Duration
	baseURL   string
}

type Options struct {
	Mailer        notify.Mailer
	Logger        zerolog.Logger
	InviteTTLDays int
	PublicBaseURL string
}

func NewService(repo Repository, rels *relations.Service, usrs *users.Service, opts Options) *Service {
	ttlDays := opts.InviteTTLDays
	if ttlDays <= 0 {
		ttlDays = 30
	}
	return &Service{
		repo:      repo,
		relations: rels,
		users:     usrs,
		mailer:    opts.Mailer,
		log:       opts.Logger,
		now:       time.Now,
		inviteTTL: time.Duration(ttlDays) * 24 * time.Hour,
		baseURL:   strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/"),
	}
}

type OwnerInfo struct {
	ID    string
	Name  string
	Email string
}

type CreateInput struct {
	Owner    OwnerInfo
	VetName  string
	VetEmail string
	Pets     []PetRef
	Message  string
}

// Create registra una invitación pendente y notifica al vet por email
// (best-effort). Si ya existe una invitación viva (pendente o aceita) para
// el mismo (owner, vet_email), se actualiza en lugar de duplicar: así nunca
// hay dos vivas para el mismo par, ni dos aceitas tras un re-invite.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invitation, error) {
	ownerID := strings.TrimSpace(in.Owner.ID)
	vetEmail := normalizeEmail(in.VetEmail)

	if ownerID == "" || vetEmail == "" {
		return Invitation{}, ErrInvalidInput
	}
	if err := validate.Var(vetEmail, "required,email"); err != nil {
		return Invitation{}, ErrInvalidInput
	}

	pets, err := normalizePets(in.Pets)
	if err != nil {
		return Invitation{}, err
	}

	now := s.now()

	// Dedup: una sola invitación viva por (owner, vet_email). Re-invitar
	// sobre una pendente la refresca; sobre una aceita, redefine qué
	// mascotas cubre el vínculo que ya existe.
	if existing, err := s.findLive(ctx, ownerID, vetEmail); err == nil && existing.ID != "" {
		existing.Pets = pets
		existing.Message = strings.TrimSpace(in.Message)
		existing.VetName = strings.TrimSpace(in.VetName)
		existing.UpdatedAt = now

		if err := s.repo.Update(ctx, existing); err != nil {
			return Invitation{}, err
		}

		if existing.Status == StatusAceito {
			// El vet ya aceptó: no hay link de aceptación que mandar,
			// solo realinear las relaciones con la lista nueva.
			s.refreshRelations(ctx, existing)
			return existing, nil
		}

		s.notifyVet(ctx, existing)
		return existing, nil
	}

	inv := Invitation{
		ID:             uuid.NewString(),
		Status:         StatusPendente,
		VetName:        strings.TrimSpace(in.VetName),
		VetEmail:       vetEmail,
		PetOwnerID:     ownerID,
		PetOwnerName:   strings.TrimSpace(in.Owner.Name),
		PetOwnerEmail:  normalizeEmail(in.Owner.Email),
		Pets:           pets,
		Message:        strings.TrimSpace(in.Message),
		InviteCode:     newInviteCode(),
		InvitationDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return Invitation{}, err
	}

	metrics.InvitationsCreated.Inc()
	s.notifyVet(ctx, inv)
	return inv, nil
}

type Responder struct {
	UserID string
	Email  string
	Name   string
}

type AcceptResult struct {
	Invitation       Invitation
	CreatedRelations []relations.Relation
}

// Accept pasa la invitación a "aceito" y materializa una relación vet por
// mascota. La materialización es por-ítem: un fallo en una mascota se
// loguea y no aborta las demás (el janitor las repara después). El update
// del perfil del vet sí es hard error: el onboarding downstream depende
// de él.
func (s *Service) Accept(ctx context.Context, id string, resp Responder) (AcceptResult, error) {
	inv, err := s.getForResponse(ctx, id, resp.Email)
	if err != nil {
		return AcceptResult{}, err
	}

	switch inv.Status {
	case StatusPendente:
		now := s.now()
		inv.Status = StatusAceito
		inv.ResponseDate = &now
		inv.UpdatedAt = now
		if err := s.repo.Update(ctx, inv); err != nil {
			return AcceptResult{}, err
		}
		metrics.InvitationsResponded.WithLabelValues(string(StatusAceito)).Inc()
	case StatusAceito:
		// Re-accept (retry del cliente): idempotente, igual aseguramos
		// relaciones y perfil.
	default:
		return AcceptResult{}, ErrBadState
	}

	created := s.materializeRelations(ctx, inv, resp)

	if _, err := s.users.MarkVeterinarian(ctx, resp.Email, firstNonEmpty(resp.Name, inv.VetName)); err != nil {
		return AcceptResult{}, err
	}

	return AcceptResult{Invitation: inv, CreatedRelations: created}, nil
}

// Reject pasa pendente -> recusado. Sin efectos sobre relaciones.
func (s *Service) Reject(ctx context.Context, id string, resp Responder) (Invitation, error) {
	inv, err := s.getForResponse(ctx, id, resp.Email)
	if err != nil {
		return Invitation{}, err
	}

	if inv.Status == StatusRecusado {
		return inv, nil
	}
	if inv.Status != StatusPendente {
		return Invitation{}, ErrBadState
	}

	now := s.now()
	inv.Status = StatusRecusado
	inv.ResponseDate = &now
	inv.UpdatedAt = now

	if err := s.repo.Update(ctx, inv); err != nil {
		return Invitation{}, err
	}
	metrics.InvitationsResponded.WithLabelValues(string(StatusRecusado)).Inc()
	return inv, nil
}

// Cancel retira la invitación (solo el owner). Cancelar un "aceito"
// también apaga las relaciones que esa invitación materializó.
func (s *Service) Cancel(ctx context.Context, id, ownerID string) (Invitation, error) {
	id = strings.TrimSpace(id)
	ownerID = strings.TrimSpace(ownerID)
	if id == "" || ownerID == "" {
		return Invitation{}, ErrInvalidInput
	}

	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Invitation{}, ErrNotFound
	}
	if inv.PetOwnerID != ownerID {
		return Invitation{}, ErrForbidden
	}

	switch inv.Status {
	case StatusCancelado:
		return inv, nil // idempotente
	case StatusPendente, StatusAceito:
		// ok
	default:
		return Invitation{}, ErrBadState
	}

	wasAccepted := inv.Status == StatusAceito

	now := s.now()
	inv.Status = StatusCancelado
	inv.UpdatedAt = now

	if err := s.repo.Update(ctx, inv); err != nil {
		return Invitation{}, err
	}
	metrics.InvitationsResponded.WithLabelValues(string(StatusCancelado)).Inc()

	if wasAccepted {
		// Best-effort: si falla, Reconcile lo repara en la próxima pasada.
		if err := s.relations.DeactivateByInvitation(ctx, inv.ID); err != nil {
			s.log.Error().Err(err).Str("invitation_id", inv.ID).
				Msg("deactivate relations on cancel failed")
		}
	}
	return inv, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Invitation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Invitation{}, ErrInvalidInput
	}
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Invitation{}, ErrNotFound
	}
	return inv, nil
}

// GetByCode resuelve el token opaco de los links de aceptación.
func (s *Service) GetByCode(ctx context.Context, code string) (Invitation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Invitation{}, ErrInvalidInput
	}
	inv, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Invitation{}, ErrNotFound
	}
	return inv, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Invitation, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) ListByVetEmail(ctx context.Context, vetEmail string) ([]Invitation, error) {
	vetEmail = normalizeEmail(vetEmail)
	if vetEmail == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByVetEmail(ctx, vetEmail)
}

// ListAccepted devuelve todas las "aceito" (input del resolver de linkage).
func (s *Service) ListAccepted(ctx context.Context) ([]Invitation, error) {
	return s.repo.ListByStatus(ctx, StatusAceito)
}

// ExpireStale pasa a "expirado" las pendentes más viejas que el TTL.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.inviteTTL)

	stale, err := s.repo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, inv := range stale {
		inv.Status = StatusExpirado
		inv.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, inv); err != nil {
			s.log.Error().Err(err).Str("invitation_id", inv.ID).Msg("expire invitation failed")
			continue
		}
		n++
	}
	return n, nil
}

// Reconcile cierra el gap de consistencia cruzada: re-materializa relaciones
// faltantes de invitaciones aceitas y apaga las de invitaciones canceladas.
func (s *Service) Reconcile(ctx context.Context) (repaired int, err error) {
	accepted, err := s.repo.ListByStatus(ctx, StatusAceito)
	if err != nil {
		return 0, err
	}
	for _, inv := range accepted {
		for _, p := range inv.Pets {
			_, createdNew, err := s.relations.Ensure(ctx, relations.EnsureInput{
				PetID:            p.PetID,
				UserEmail:        inv.VetEmail,
				RelationshipType: relations.TypeVet,
				Permissions:      []relations.Permission{relations.PermRead, relations.PermWrite},
				InvitationID:     inv.ID,
				AddedBy:          inv.PetOwnerID,
			})
			if err != nil {
				s.log.Error().Err(err).Str("invitation_id", inv.ID).Str("pet_id", p.PetID).
					Msg("reconcile: ensure relation failed")
				continue
			}
			if createdNew {
				repaired++
			}
		}
	}

	cancelled, err := s.repo.ListByStatus(ctx, StatusCancelado)
	if err != nil {
		return repaired, err
	}
	for _, inv := range cancelled {
		if err := s.relations.DeactivateByInvitation(ctx, inv.ID); err != nil {
			s.log.Error().Err(err).Str("invitation_id", inv.ID).
				Msg("reconcile: deactivate relations failed")
		}
	}
	return repaired, nil
}

func (s *Service) getForResponse(ctx context.Context, id, responderEmail string) (Invitation, error) {
	id = strings.TrimSpace(id)
	email := normalizeEmail(responderEmail)
	if id == "" || email == "" {
		return Invitation{}, ErrInvalidInput
	}

	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Invitation{}, ErrNotFound
	}

	// El match vet <-> invitación es por email. Mismatch => sin mutación.
	if normalizeEmail(inv.VetEmail) != email {
		return Invitation{}, ErrForbidden
	}
	return inv, nil
}

func (s *Service) materializeRelations(ctx context.Context, inv Invitation, resp Responder) []relations.Relation {
	created := make([]relations.Relation, 0, len(inv.Pets))
	for _, p := range inv.Pets {
		r, createdNew, err := s.relations.Ensure(ctx, relations.EnsureInput{
			PetID:            p.PetID,
			UserID:           resp.UserID,
			UserEmail:        resp.Email,
			RelationshipType: relations.TypeVet,
			Permissions:      []relations.Permission{relations.PermRead, relations.PermWrite},
			InvitationID:     inv.ID,
			AddedBy:          inv.PetOwnerID,
		})
		if err != nil {
			// Por-ítem: loguear y seguir con las demás mascotas.
			metrics.RelationFailures.Inc()
			s.log.Error().Err(err).Str("invitation_id", inv.ID).Str("pet_id", p.PetID).
				Msg("materialize relation failed")
			continue
		}
		if createdNew {
			metrics.RelationsMaterialized.Inc()
			created = append(created, r)
		}
	}
	return created
}

// findLive busca la invitación viva (pendente o aceita) del par
// (owner, vet_email). Si datos viejos dejaron más de una, gana la aceita;
// a igual status, la más reciente.
func (s *Service) findLive(ctx context.Context, ownerID, vetEmail string) (Invitation, error) {
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return Invitation{}, err
	}

	var winner Invitation
	for _, inv := range items {
		if normalizeEmail(inv.VetEmail) != vetEmail {
			continue
		}
		if inv.Status != StatusPendente && inv.Status != StatusAceito {
			continue
		}
		switch {
		case winner.ID == "":
			winner = inv
		case inv.Status == StatusAceito && winner.Status != StatusAceito:
			winner = inv
		case inv.Status == winner.Status && inv.UpdatedAt.After(winner.UpdatedAt):
			winner = inv
		}
	}
	if winner.ID == "" {
		return Invitation{}, ErrNotFound
	}
	return winner, nil
}

// refreshRelations realinea las relaciones de una invitación aceita con su
// lista actual de mascotas: apaga lo que materializó y vuelve a asegurar
// las vigentes. Best-effort, el janitor repara lo que quede a medias.
func (s *Service) refreshRelations(ctx context.Context, inv Invitation) {
	if err := s.relations.DeactivateByInvitation(ctx, inv.ID); err != nil {
		s.log.Error().Err(err).Str("invitation_id", inv.ID).
			Msg("refresh relations: deactivate failed")
	}
	for _, p := range inv.Pets {
		if _, _, err := s.relations.Ensure(ctx, relations.EnsureInput{
			PetID:            p.PetID,
			UserEmail:        inv.VetEmail,
			RelationshipType: relations.TypeVet,
			Permissions:      []relations.Permission{relations.PermRead, relations.PermWrite},
			InvitationID:     inv.ID,
			AddedBy:          inv.PetOwnerID,
		}); err != nil {
			s.log.Error().Err(err).Str("invitation_id", inv.ID).Str("pet_id", p.PetID).
				Msg("refresh relations: ensure failed")
		}
	}
}

func (s *Service) notifyVet(ctx context.Context, inv Invitation) {
	if s.mailer == nil {
		return
	}

	names := make([]string, 0, len(inv.Pets))
	for _, p := range inv.Pets {
		names = append(names, p.PetName)
	}

	err := s.mailer.SendInvitation(ctx, notify.InvitationEmail{
		To:         inv.VetEmail,
		VetName:    inv.VetName,
		OwnerName:  inv.PetOwnerName,
		PetNames:   names,
		Message:    inv.Message,
		AcceptLink: s.baseURL + "/convite/" + inv.InviteCode,
	})
	if err != nil {
		// Best-effort: el email caído nunca tumba el create.
		s.log.Warn().Err(err).Str("invitation_id", inv.ID).Msg("invitation email failed")
	}
}

func normalizePets(in []PetRef) ([]PetRef, error) {
	if len(in) == 0 {
		return nil, ErrInvalidInput
	}

	seen := map[string]struct{}{}
	out := make([]PetRef, 0, len(in))
	for _, p := range in {
		id := strings.TrimSpace(p.PetID)
		if id == "" {
			return nil, ErrInvalidInput
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, PetRef{PetID: id, PetName: strings.TrimSpace(p.PetName)})
	}
	return out, nil
}

func newInviteCode() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return strings.TrimSpace(b)
}
