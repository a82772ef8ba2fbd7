// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"

	"github.com/relabs-tech/contaconmigo/core"
	"github.com/relabs-tech/contaconmigo/core/access"
	"github.com/relabs-tech/contaconmigo/core/backend"
	"github.com/relabs-tech/contaconmigo/core/csql"
	"github.com/relabs-tech/contaconmigo/core/identity"
	"github.com/relabs-tech/contaconmigo/core/logger"
	"github.com/relabs-tech/contaconmigo/core/notify"
	"github.com/relabs-tech/contaconmigo/core/store"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	PostgresSchema   string `env:"POSTGRES_SCHEMA,default=contaconmigo" description:"the database schema of the service"`
	JWTSecret        string `env:"JWT_SECRET,required" description:"the secret the identity provider signs bearer tokens with"`
	JWTAudience      string `env:"JWT_AUDIENCE,default=authenticated" description:"the expected audience of bearer tokens"`
	IdentityURL      string `env:"IDENTITY_URL,optional" description:"base URL of the identity provider"`
	IdentityAPIKey   string `env:"IDENTITY_API_KEY,optional" description:"api key for the identity provider"`
	KafkaBrokers     string `env:"KAFKA_BROKERS,optional" description:"comma separated kafka brokers for change events"`
	KafkaTopic       string `env:"KAFKA_TOPIC,default=contaconmigo.events" description:"the kafka topic for change events"`
	LogLevel         string `env:"LOG_LEVEL,default=info" description:"the log level"`
	Port             string `env:"PORT,default=3000" description:"the port to listen on"`
}

func main() {
	service := &Service{}
	if err := envdecode.StrictDecode(service); err != nil {
		logger.Default().WithError(err).Fatal("invalid configuration")
	}
	logger.InitLogger(logger.ParseLevel(service.LogLevel))
	rlog := logger.Default()

	// without secret every request would have to be rejected, refuse to start
	verifier, err := access.NewTokenVerifier(service.JWTSecret, service.JWTAudience)
	if err != nil {
		rlog.WithError(err).Fatal("cannot start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := csql.OpenWithSchema(ctx, service.Postgres, service.PostgresPassword, service.PostgresSchema)
	if err != nil {
		rlog.WithError(err).Fatal("cannot open database")
	}
	defer db.Close()

	pg, err := store.NewPostgres(ctx, db)
	if err != nil {
		rlog.WithError(err).Fatal("cannot create store")
	}

	var notifier core.Notifier
	if brokers := splitList(service.KafkaBrokers); len(brokers) > 0 {
		k := notify.NewKafka(brokers, service.KafkaTopic)
		defer k.Close()
		notifier = k
		rlog.Infoln("publishing change events to", service.KafkaTopic)
	}

	if service.IdentityURL == "" {
		rlog.Warnln("IDENTITY_URL is not set, /auth routes are disabled")
	}

	router := mux.NewRouter()
	backend.New(&backend.Builder{
		Router:   router,
		Store:    pg,
		Verifier: verifier,
		Identity: identity.New(service.IdentityURL, service.IdentityAPIKey),
		Notifier: notifier,
	})

	srv := &http.Server{
		Addr:              ":" + service.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	rlog.Infoln("listen on port :" + service.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		rlog.WithError(err).Fatal("server failed")
	}
	rlog.Infoln("server stopped")
}

func splitList(s string) []string {
	var list []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			list = append(list, e)
		}
	}
	return list
}
