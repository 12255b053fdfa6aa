package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/youruser/posterapp/internal/api"
	"github.com/youruser/posterapp/internal/config"
	imagepkg "github.com/youruser/posterapp/internal/image"
	"github.com/youruser/posterapp/internal/logging"
	"github.com/youruser/posterapp/internal/publish"
	"github.com/youruser/posterapp/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config failed")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	compositor, err := imagepkg.NewCompositor(imagepkg.Options{
		TemplatePath: cfg.Poster.TemplatePath,
		FontPath:     cfg.Poster.FontPath,
		Mode:         imagepkg.LabelMode(cfg.Poster.LabelMode),
		Placeholder:  cfg.Poster.LabelPlaceholder,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("compositor init failed")
	}
	// a bad template only fails uploads, so warn early
	if _, err := os.Stat(cfg.Poster.TemplatePath); err != nil {
		log.Warn().Err(err).Str("path", cfg.Poster.TemplatePath).Msg("poster template not readable")
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("publisher init failed")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger())

	api.RegisterRoutes(r, api.NewHandler(compositor, publisher, api.Options{
		RequireImageType: cfg.Poster.RequireImageType,
		MaxUploadBytes:   cfg.MaxUploadBytes(),
		SessionCookies:   cfg.S3.SessionCookies,
	}))
	if cfg.Publisher == config.PublisherLocal {
		r.Static(cfg.Local.URLPrefix, cfg.Local.Dir)
	}
	web.Register(r, compositor.Mode() != imagepkg.LabelOff)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("addr", "http://localhost:"+cfg.Port).
		Str("publisher", cfg.Publisher).
		Str("label_mode", string(compositor.Mode())).
		Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func newPublisher(ctx context.Context, cfg config.Config) (publish.Publisher, error) {
	if cfg.Publisher != config.PublisherS3 {
		return publish.NewLocal(cfg.Local.Dir, cfg.Local.URLPrefix), nil
	}

	opts := publish.S3Options{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		UsePathStyle:    cfg.S3.UsePathStyle,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
		PresignTTL:      cfg.S3.PresignTTL,
	}
	client, err := publish.NewS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}
	return publish.NewS3(client, opts), nil
}
