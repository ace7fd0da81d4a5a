package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"pet-vet-link/internal/domain/invitations"
)

type InvitationsRepo struct {
	db *sql.DB
}

func NewInvitationsRepo(db *sql.DB) *InvitationsRepo {
	return &InvitationsRepo{db: db}
}

const invitationColumns = `
	id, status,
	vet_name, vet_email,
	pet_owner_id, pet_owner_name, pet_owner_email,
	pets, message, invite_code,
	invitation_date, response_date,
	created_at, updated_at
`

func (r *InvitationsRepo) Create(ctx context.Context, inv invitations.Invitation) error {
	petsJSON, err := json.Marshal(inv.Pets)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invitations (
			id, status,
			vet_name, vet_email,
			pet_owner_id, pet_owner_name, pet_owner_email,
			pets, message, invite_code,
			invitation_date, response_date,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		inv.ID,
		string(inv.Status),
		inv.VetName,
		inv.VetEmail,
		inv.PetOwnerID,
		inv.PetOwnerName,
		inv.PetOwnerEmail,
		petsJSON,
		inv.Message,
		inv.InviteCode,
		inv.InvitationDate,
		toNullTime(inv.ResponseDate),
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	return err
}

func (r *InvitationsRepo) Update(ctx context.Context, inv invitations.Invitation) error {
	petsJSON, err := json.Marshal(inv.Pets)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET
			status = $2,
			vet_name = $3,
			pets = $4,
			message = $5,
			response_date = $6,
			updated_at = $7
		WHERE id = $1
	`,
		inv.ID,
		string(inv.Status),
		inv.VetName,
		petsJSON,
		inv.Message,
		toNullTime(inv.ResponseDate),
		inv.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return invitations.ErrNotFound
	}
	return nil
}

func (r *InvitationsRepo) GetByID(ctx context.Context, id string) (invitations.Invitation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return invitations.Invitation{}, invitations.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE id = $1
	`, id)
	return scanInvitation(row)
}

func (r *InvitationsRepo) GetByCode(ctx context.Context, code string) (invitations.Invitation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return invitations.Invitation{}, invitations.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE invite_code = $1
	`, code)
	return scanInvitation(row)
}

func (r *InvitationsRepo) ListByOwner(ctx context.Context, ownerID string) ([]invitations.Invitation, error) {
	return r.list(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE pet_owner_id = $1
		ORDER BY invitation_date ASC
	`, ownerID)
}

func (r *InvitationsRepo) ListByVetEmail(ctx context.Context, vetEmail string) ([]invitations.Invitation, error) {
	return r.list(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE lower(vet_email) = lower($1)
		ORDER BY invitation_date ASC
	`, vetEmail)
}

func (r *InvitationsRepo) ListByStatus(ctx context.Context, status invitations.Status) ([]invitations.Invitation, error) {
	return r.list(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE status = $1
		ORDER BY invitation_date ASC
	`, string(status))
}

func (r *InvitationsRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]invitations.Invitation, error) {
	return r.list(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE status = 'pendente' AND invitation_date < $1
		ORDER BY invitation_date ASC
	`, cutoff)
}

func (r *InvitationsRepo) list(ctx context.Context, query string, arg any) ([]invitations.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]invitations.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (invitations.Invitation, error) {
	var inv invitations.Invitation
	var status string
	var petsJSON []byte
	var responseDate sql.NullTime

	if err := row.Scan(
		&inv.ID,
		&status,
		&inv.VetName,
		&inv.VetEmail,
		&inv.PetOwnerID,
		&inv.PetOwnerName,
		&inv.PetOwnerEmail,
		&petsJSON,
		&inv.Message,
		&inv.InviteCode,
		&inv.InvitationDate,
		&responseDate,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return invitations.Invitation{}, invitations.ErrNotFound
		}
		return invitations.Invitation{}, err
	}

	inv.Status = invitations.Status(status)
	inv.ResponseDate = fromNullTime(responseDate)

	// Pets malformado en el store no debe tumbar la lectura: cubre nada.
	if len(petsJSON) > 0 {
		_ = json.Unmarshal(petsJSON, &inv.Pets)
	}

	return inv, nil
}
