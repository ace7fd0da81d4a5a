package invitations

import "time"

// Status sigue la nomenclatura del producto (pt-BR).
type Status string

const (
	StatusPendente  Status = "pendente"
	StatusAceito    Status = "aceito"
	StatusRecusado  Status = "recusado"
	StatusCancelado Status = "cancelado"
	StatusExpirado  Status = "expirado"
)

// IsTerminal indica si el status no admite más transiciones de respuesta.
// "aceito" igual puede pasar a "cancelado" si el tutor retira el acceso.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRecusado, StatusCancelado, StatusExpirado:
		return true
	default:
		return false
	}
}

// PetRef es el par (pet_id, pet_name) embebido en la invitación.
// Una invitación puede cubrir varias mascotas.
type PetRef struct {
	PetID   string `json:"pet_id"`
	PetName string `json:"pet_name"`
}

type Invitation struct {
	ID     string
	Status Status

	VetName  string
	VetEmail string

	PetOwnerID    string
	PetOwnerName  string
	PetOwnerEmail string

	Pets []PetRef

	Message    string
	InviteCode string // token opaco para links de aceptación out-of-band

	InvitationDate time.Time
	ResponseDate   *time.Time // nil hasta que haya respuesta

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers indica si la invitación incluye a petID.
// Tolerante a Pets nil/vacío (cubre nada).
func (i Invitation) Covers(petID string) bool {
	if petID == "" {
		return false
	}
	for _, p := range i.Pets {
		if p.PetID == petID {
			return true
		}
	}
	return false
}
