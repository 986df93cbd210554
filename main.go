package main

import (
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal"
	"github.com/scholarsync/scholarsync_server/internal/admin"
	"github.com/scholarsync/scholarsync_server/internal/blob"
	"github.com/scholarsync/scholarsync_server/internal/comment"
	"github.com/scholarsync/scholarsync_server/internal/files"
	"github.com/scholarsync/scholarsync_server/internal/health"
	"github.com/scholarsync/scholarsync_server/internal/keys"
	"github.com/scholarsync/scholarsync_server/internal/note"
	"github.com/scholarsync/scholarsync_server/internal/notify"
	"github.com/scholarsync/scholarsync_server/internal/report"
	"github.com/scholarsync/scholarsync_server/internal/search"
	"github.com/scholarsync/scholarsync_server/internal/setup"
	"github.com/scholarsync/scholarsync_server/internal/subject"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/valyala/fasthttp"
)

const version = "1.0.0"

func main() {
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
		return
	}

	privateKey, publicKey, err := keys.DeriveRSAKeyPair(config.MasterPassword, config.ExternalURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Error deriving RSA keys")
		return
	}
	log.Info().Msg("RSA keys initialized successfully")

	db, err := internal.NewDB(config.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
		return
	}

	blobStore, err := blob.NewStore(&config.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing blob store")
		return
	}

	userRepository := user.NewPostgresUserRepository(db)
	refreshTokenRepository := user.NewPostgresRefreshTokenRepository(db)
	userService := user.NewUserService(userRepository, refreshTokenRepository, config.Users, privateKey, publicKey)
	if config.Users.GoogleClientID != "" {
		userService.SetGoogleVerifier(user.NewGoogleVerifier(config.Users.GoogleClientID))
	}

	subjectRepository := subject.NewPostgresSubjectRepository(db)
	subjectService := subject.NewSubjectService(subjectRepository)

	noteRepository := note.NewPostgresNoteRepository(db)
	reactionRepository := note.NewPostgresReactionRepository(db)
	noteService := note.NewService(noteRepository, reactionRepository, subjectService, blobStore, config.Notes)

	commentRepository := comment.NewPostgresCommentRepository(db)
	reportRepository := report.NewPostgresReportRepository(db)
	adminRepository := admin.NewPostgresAdminRepository(db)

	userService.SetPurgers(noteService, commentRepository, reactionRepository)

	hub := notify.NewHub()
	go hub.Run()
	noteService.SetNotifier(hub)

	if err := setup.EnsureAdmin(userRepository, config.Admin.Name, config.Admin.Email, config.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("Error seeding admin account")
		return
	}

	endpoints := &internal.Endpoints{
		Users:    user.NewEndpoints(userService),
		Notes:    note.NewEndpoints(noteService),
		Files:    files.NewEndpoints(blobStore),
		Comments: comment.NewEndpoints(commentRepository, noteService),
		Subjects: subject.NewEndpoints(subjectService),
		Reports:  report.NewEndpoints(reportRepository, noteService),
		Search:   search.NewEndpoints(noteService),
		Admin:    admin.NewEndpoints(adminRepository, userRepository),
		Health:   health.NewEndpoints(version, db),
		WS:       notify.NewHandler(hub, userService, config.AllowedOrigins),
	}

	requestHandler := internal.NewRequestHandler(config, endpoints, userService)

	log.Info().Str("addr", config.ListenAddr).Msg("Starting server")
	if err := fasthttp.ListenAndServe(config.ListenAddr, requestHandler); err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}
}
