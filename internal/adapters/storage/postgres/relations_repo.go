package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"pet-vet-link/internal/domain/relations"
)

type RelationsRepo struct {
	db *sql.DB
}

func NewRelationsRepo(db *sql.DB) *RelationsRepo {
	return &RelationsRepo{db: db}
}

const relationColumns = `
	id, pet_id, user_id, user_email,
	relationship_type, permissions, invitation_id,
	added_by, added_date, is_active
`

func (r *RelationsRepo) Create(ctx context.Context, rel relations.Relation) error {
	permsJSON, err := json.Marshal(rel.Permissions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pet_user_relations (
			id, pet_id, user_id, user_email,
			relationship_type, permissions, invitation_id,
			added_by, added_date, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		rel.ID,
		rel.PetID,
		rel.UserID,
		rel.UserEmail,
		string(rel.RelationshipType),
		permsJSON,
		rel.InvitationID,
		rel.AddedBy,
		rel.AddedDate,
		rel.IsActive,
	)
	return err
}

func (r *RelationsRepo) Update(ctx context.Context, rel relations.Relation) error {
	permsJSON, err := json.Marshal(rel.Permissions)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pet_user_relations
		SET
			permissions = $2,
			is_active = $3
		WHERE id = $1
	`,
		rel.ID,
		permsJSON,
		rel.IsActive,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return relations.ErrNotFound
	}
	return nil
}

func (r *RelationsRepo) GetByID(ctx context.Context, id string) (relations.Relation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return relations.Relation{}, relations.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+relationColumns+`
		FROM pet_user_relations
		WHERE id = $1
	`, id)
	return scanRelation(row)
}

func (r *RelationsRepo) ListByPet(ctx context.Context, petID string) ([]relations.Relation, error) {
	return r.list(ctx, `
		SELECT `+relationColumns+`
		FROM pet_user_relations
		WHERE pet_id = $1
		ORDER BY added_date ASC
	`, petID)
}

func (r *RelationsRepo) ListActiveByUserEmail(ctx context.Context, userEmail string) ([]relations.Relation, error) {
	return r.list(ctx, `
		SELECT `+relationColumns+`
		FROM pet_user_relations
		WHERE lower(user_email) = lower($1) AND is_active
		ORDER BY added_date ASC
	`, userEmail)
}

func (r *RelationsRepo) GetActive(ctx context.Context, petID, userEmail string) (relations.Relation, error) {
	petID = strings.TrimSpace(petID)
	userEmail = strings.TrimSpace(userEmail)
	if petID == "" || userEmail == "" {
		return relations.Relation{}, relations.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+relationColumns+`
		FROM pet_user_relations
		WHERE pet_id = $1
		  AND lower(user_email) = lower($2)
		  AND is_active
		ORDER BY added_date DESC
		LIMIT 1
	`, petID, userEmail)
	return scanRelation(row)
}

func (r *RelationsRepo) ListByInvitation(ctx context.Context, invitationID string) ([]relations.Relation, error) {
	return r.list(ctx, `
		SELECT `+relationColumns+`
		FROM pet_user_relations
		WHERE invitation_id = $1
		ORDER BY added_date ASC
	`, invitationID)
}

func (r *RelationsRepo) list(ctx context.Context, query string, arg any) ([]relations.Relation, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]relations.Relation, 0)
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

func scanRelation(row rowScanner) (relations.Relation, error) {
	var rel relations.Relation
	var relType string
	var permsJSON []byte

	if err := row.Scan(
		&rel.ID,
		&rel.PetID,
		&rel.UserID,
		&rel.UserEmail,
		&relType,
		&permsJSON,
		&rel.InvitationID,
		&rel.AddedBy,
		&rel.AddedDate,
		&rel.IsActive,
	); err != nil {
		if err == sql.ErrNoRows {
			return relations.Relation{}, relations.ErrNotFound
		}
		return relations.Relation{}, err
	}

	rel.RelationshipType = relations.RelationshipType(relType)
	if len(permsJSON) > 0 {
		_ = json.Unmarshal(permsJSON, &rel.Permissions)
	}

	return rel, nil
}
