package users

import "time"

type UserType string

const (
	TypeTutor       UserType = "tutor"
	TypeVeterinario UserType = "veterinario"
)

// User es el perfil de aplicación. La identidad (login/token) vive en el
// IAM externo; acá solo guardamos lo que el producto necesita.
type User struct {
	ID       string
	Email    string
	FullName string

	UserType             UserType
	ProfileSetupComplete bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
