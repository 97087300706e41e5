package main

import (
	"context"
	"log"
	"net/http"

	"github.com/caarlos0/env/v11"
	"github.com/tinkerborg/otaupdate/internal/handler/apps"
	"github.com/tinkerborg/otaupdate/internal/handler/authhandler"
	"github.com/tinkerborg/otaupdate/internal/handler/manifest"
	"github.com/tinkerborg/otaupdate/internal/handler/releases"
	"github.com/tinkerborg/otaupdate/internal/handler/upload"
	"github.com/tinkerborg/otaupdate/internal/handler/uploads"
	"github.com/tinkerborg/otaupdate/internal/service/auth"
	"github.com/tinkerborg/otaupdate/internal/service/devices"
	"github.com/tinkerborg/otaupdate/internal/service/ingest"
	manifestsvc "github.com/tinkerborg/otaupdate/internal/service/manifest"
	"github.com/tinkerborg/otaupdate/internal/service/objectstore"
	"github.com/tinkerborg/otaupdate/internal/service/release"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/pkg/router"
	"github.com/tinkerborg/otaupdate/pkg/router/middleware"
)

type Config struct {
	DatabaseURL            string             `env:"DATABASE_URL,required"`
	ListenAddress          string             `env:"LISTEN_ADDRESS" envDefault:"0.0.0.0"`
	ListenPort             string             `env:"LISTEN_PORT" envDefault:"8080"`
	AppBaseURL             string             `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	PublishSecret          string             `env:"PUBLISH_SECRET,required"`
	AdminBootstrapPassword string             `env:"ADMIN_BOOTSTRAP_PASSWORD,required"`
	MaxAssetBytes          int64              `env:"MAX_ASSET_BYTES" envDefault:"52428800"`
	MaxTotalBytes          int64              `env:"MAX_TOTAL_BYTES" envDefault:"524288000"`
	Objects                objectstore.Config `envPrefix:"S3_"`
}

func main() {
	config := Config{}
	if err := env.Parse(&config); err != nil {
		log.Fatalf("error parsing configuration: %s", err)
	}

	s, err := store.NewPostgres(config.DatabaseURL)
	if err != nil {
		log.Fatalf("error creating store: %s", err)
	}

	if err := s.RegisterSchemas(); err != nil {
		log.Fatalf("error registering schemas: %s", err)
	}

	authService, err := auth.New(s)
	if err != nil {
		log.Fatalf("error creating auth service: %s", err)
	}

	if err := authService.EnsureBootstrapUser(config.AdminBootstrapPassword); err != nil {
		log.Fatalf("error bootstrapping admin user: %s", err)
	}

	objects, err := objectstore.NewS3Store(context.Background(), config.Objects)
	if err != nil {
		log.Fatalf("error creating object store: %s", err)
	}

	releaseService := release.New(s)

	ingestService := ingest.New(s, objects, ingest.Config{
		SharedSecret:  config.PublishSecret,
		MaxAssetBytes: config.MaxAssetBytes,
		MaxTotalBytes: config.MaxTotalBytes,
	})

	deviceRecorder := devices.New(s)
	manifestService := manifestsvc.New(s, deviceRecorder, config.AppBaseURL)

	r := router.NewRouter()

	r.Use(middleware.Logging, middleware.GzipDecode)

	r.Mount("/api", manifest.Setup(manifestService, objects))
	r.Mount("/upload", upload.Setup(ingestService))
	r.Mount("/apps", apps.Setup(s, objects), authService.Middleware)
	r.Mount("/uploads", uploads.Setup(s, objects), authService.Middleware)
	r.Mount("/utils", releases.Setup(releaseService), authService.Middleware)
	r.Mount("/auth", authhandler.Setup(authService))

	log.Fatal(http.ListenAndServe(config.ListenAddress+":"+config.ListenPort, r))
}
