package setup

import (
	"time"

	"github.com/itchan-dev/askchan/backend/internal/handler"
	"github.com/itchan-dev/askchan/backend/internal/service"
	"github.com/itchan-dev/askchan/backend/internal/storage/pg"
	"github.com/itchan-dev/askchan/backend/internal/utils"
	"github.com/itchan-dev/askchan/backend/internal/utils/email"
	"github.com/itchan-dev/askchan/shared/config"
	"github.com/itchan-dev/askchan/shared/jwt"
	"github.com/itchan-dev/askchan/shared/logger"
	"github.com/itchan-dev/askchan/shared/markdown"
	mw "github.com/itchan-dev/askchan/shared/middleware"
	rl "github.com/itchan-dev/askchan/shared/middleware/ratelimiter"
	sharedpg "github.com/itchan-dev/askchan/shared/storage/pg"
)

// Dependencies holds everything the router and the mailbox consumer need.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	Jwt            jwt.JwtService
	Inbound        *service.Inbound

	ReadLimiter          *rl.UserRateLimiter
	WriteLimiter         *rl.UserRateLimiter
	InboundLimiter       *rl.UserRateLimiter
	GlobalInboundLimiter *rl.UserRateLimiter
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	// sending is skipped when no SMTP server is configured
	var mailer service.Email
	if cfg.Private.Email.SMTPServer != "" {
		mailer = email.New(&cfg.Private.Email, cfg.Public.ReplyEmailDomain)
	} else {
		logger.Log.Warn("smtp_server is not set, reply addresses won't be emailed")
	}

	revisions := service.NewRevisions(storage)
	comments := service.NewComments(storage)
	posts := service.NewPosts(storage, utils.New(), markdown.New(), revisions, comments)
	replies := service.NewReplyAddresses(storage, posts, mailer, cfg)
	inbound := service.NewInbound(replies)

	h := handler.New(posts, replies, inbound, storage)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(jwtService),
		Jwt:            jwtService,
		Inbound:        inbound,

		ReadLimiter:          rl.New(100, 100, time.Hour),
		WriteLimiter:         rl.New(1, 5, time.Hour),
		InboundLimiter:       rl.PerMinute(cfg.Public.InboundRatePerMinute),
		GlobalInboundLimiter: rl.New(100, 100, time.Hour),
	}, nil
}
