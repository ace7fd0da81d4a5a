package notify

import "context"

// InvitationEmail es el contenido mínimo que el mailer necesita
// para notificar a un veterinario que fue invitado.
type InvitationEmail struct {
	To         string
	VetName    string
	OwnerName  string
	PetNames   []string
	Message    string
	AcceptLink string
}

// Mailer envía notificaciones de invitación.
// El envío es best-effort: el caller loguea el error y sigue.
type Mailer interface {
	SendInvitation(ctx context.Context, m InvitationEmail) error
}
