package relations

import "time"

type RelationshipType string

const (
	TypeOwner RelationshipType = "owner"
	TypeVet   RelationshipType = "vet"
)

type Permission string

const (
	PermRead   Permission = "read"
	PermWrite  Permission = "write"
	PermShare  Permission = "share"
	PermManage Permission = "manage"
)

// Relation es el registro durable de autorización sobre una mascota.
// Se materializa al aceptar una invitación. El acceso del owner no pasa
// por acá: sale directo de Pet.OwnerUserID.
type Relation struct {
	ID string

	PetID     string
	UserID    string
	UserEmail string

	RelationshipType RelationshipType
	Permissions      []Permission

	// InvitationID apunta a la invitación que originó la relación.
	// Vacío para relaciones de owner. Permite revocar en cascada al cancelar.
	InvitationID string

	AddedBy   string
	AddedDate time.Time
	IsActive  bool
}

// HasPermission valida si la relación incluye un permiso.
func HasPermission(r Relation, p Permission) bool {
	for _, x := range r.Permissions {
		if x == p {
			return true
		}
	}
	return false
}
