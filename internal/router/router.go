package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "pet-vet-link/internal/adapters/storage/memory"
	pg "pet-vet-link/internal/adapters/storage/postgres"
	"pet-vet-link/internal/domain/events"
	"pet-vet-link/internal/domain/invitations"
	"pet-vet-link/internal/domain/linkage"
	"pet-vet-link/internal/domain/pets"
	"pet-vet-link/internal/domain/relations"
	"pet-vet-link/internal/domain/users"
	"pet-vet-link/internal/middleware"
	"pet-vet-link/internal/platform/metrics"
	"pet-vet-link/internal/ports/auth"
	"pet-vet-link/internal/ports/files"
	"pet-vet-link/internal/ports/notify"

	_ "pet-vet-link/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger zerolog.Logger

	// Opcionales; nil => la feature responde degradada (sin email / 503 foto).
	Mailer   notify.Mailer
	Uploader files.Uploader

	InviteTTLDays int
	PublicBaseURL string
}

// NewRouter arma el árbol de rutas y el grafo de services.
// Devuelve también el service de invitaciones para que cmd/api
// pueda correr el janitor sobre la misma instancia.
func NewRouter(opts Options) (http.Handler, *invitations.Service) {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	var (
		petRepo   pets.Repository
		invRepo   invitations.Repository
		relRepo   relations.Repository
		userRepo  users.Repository
		eventRepo events.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		petRepo = pg.NewPetsRepo(db)
		invRepo = pg.NewInvitationsRepo(db)
		relRepo = pg.NewRelationsRepo(db)
		userRepo = pg.NewUsersRepo(db)
		eventRepo = pg.NewEventsRepo(db)
	} else {
		petRepo = mem.NewPetRepo()
		invRepo = mem.NewInvitationRepo()
		relRepo = mem.NewRelationRepo()
		userRepo = mem.NewUserRepo()
		eventRepo = mem.NewEventRepo()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	usersSvc := users.NewService(userRepo)
	relsSvc := relations.NewService(relRepo)
	eventsSvc := events.NewService(eventRepo)

	invsSvc := invitations.NewService(invRepo, relsSvc, usersSvc, invitations.Options{
		Mailer:        opts.Mailer,
		Logger:        opts.Logger,
		InviteTTLDays: opts.InviteTTLDays,
		PublicBaseURL: opts.PublicBaseURL,
	})

	linkSvc := linkage.NewService(invsSvc, opts.Logger)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc, relsSvc, opts.Uploader)
	users.RegisterRoutes(r, usersSvc)
	relations.RegisterRoutes(r, relsSvc, petsSvc)
	invitations.RegisterRoutes(r, invsSvc, petsSvc)
	linkage.RegisterRoutes(r, linkSvc, petsSvc)
	events.RegisterRoutes(r, eventsSvc, petsSvc, relsSvc)

	return r, invsSvc
}
