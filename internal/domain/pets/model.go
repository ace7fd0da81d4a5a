package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, bird, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesBird  Species = "bird"
	SpeciesOther Species = "other"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Pet representa el perfil básico de una mascota registrada en el sistema.
type Pet struct {
	ID          string
	OwnerUserID string
	OwnerEmail  string // created_by del producto; base del match de relaciones

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	WeightKg  *float64
	PhotoURL  string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
