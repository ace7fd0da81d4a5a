package auth

// Claims representa la información extraída del token.
// Email es obligatorio para los flujos de invitación (el match
// vet <-> invitación se hace por email, no por user id).
type Claims struct {
	UserID string
	Email  string
	Name   string
}
