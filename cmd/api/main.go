package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-vet-link/internal/adapters/auth/odin"
	"pet-vet-link/internal/adapters/files/mediastore"
	smtpmailer "pet-vet-link/internal/adapters/notify/smtp"
	pg "pet-vet-link/internal/adapters/storage/postgres"
	"pet-vet-link/internal/domain/invitations"
	"pet-vet-link/internal/platform/config"
	"pet-vet-link/internal/platform/logger"
	"pet-vet-link/internal/ports/auth"
	"pet-vet-link/internal/ports/files"
	"pet-vet-link/internal/ports/notify"
	"pet-vet-link/internal/router"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		// Sin config no hay logger todavía; stderr directo.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		App:    cfg.AppName,
	})

	var db *sql.DB
	if cfg.DSN != "" {
		db, err = pg.Open(cfg.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		defer db.Close()
	} else {
		log.Warn().Msg("DB_DSN vacío, usando repos in-memory (solo dev)")
	}

	var verifier auth.AuthVerifier
	if cfg.Odin.BaseURL != "" {
		odinClient, err := odin.NewClient(odin.Config{
			BaseURL: cfg.Odin.BaseURL,
			APIKey:  cfg.Odin.APIKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("odin client")
		}
		verifier = odin.NewVerifier(odinClient)
	} else {
		log.Warn().Msg("ODIN_BASE_URL vacío, auth en modo dev (headers X-Debug-*)")
	}

	var mailer notify.Mailer
	if cfg.SMTP.IsConfigured() {
		mailer = smtpmailer.NewMailer(cfg.SMTP)
	} else {
		log.Warn().Msg("SMTP no configurado, invitaciones sin email")
	}

	var uploader files.Uploader
	if cfg.Media.BaseURL != "" {
		media, err := mediastore.NewClient(cfg.Media)
		if err != nil {
			log.Fatal().Err(err).Msg("mediastore client")
		}
		uploader = media
	}

	handler, invsSvc := router.NewRouter(router.Options{
		AuthVerifier:  verifier,
		DB:            db,
		Logger:        log,
		Mailer:        mailer,
		Uploader:      uploader,
		InviteTTLDays: cfg.InviteTTLDays,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runJanitor(ctx, invsSvc, cfg.JanitorInterval, log)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// runJanitor expira invitaciones pendientes viejas y reconcilia las
// relaciones derivadas de invitaciones aceptadas/canceladas.
func runJanitor(ctx context.Context, svc *invitations.Service, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)

			expired, err := svc.ExpireStale(runCtx)
			if err != nil {
				log.Error().Err(err).Msg("janitor: expire stale invitations")
			} else if expired > 0 {
				log.Info().Int("expired", expired).Msg("janitor: invitations expired")
			}

			repaired, err := svc.Reconcile(runCtx)
			if err != nil {
				log.Error().Err(err).Msg("janitor: reconcile relations")
			} else if repaired > 0 {
				log.Info().Int("repaired", repaired).Msg("janitor: relations repaired")
			}

			cancel()
		}
	}
}
