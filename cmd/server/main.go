package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"manifestgate/internal/audit"
	"manifestgate/internal/certification"
	"manifestgate/internal/crew"
	"manifestgate/internal/crypto"
	"manifestgate/internal/domain"
	"manifestgate/internal/fleet"
	"manifestgate/internal/jurisdiction"
	"manifestgate/internal/manifest"
	"manifestgate/internal/manning"
	"manifestgate/internal/passenger"
	"manifestgate/internal/platform/config"
	"manifestgate/internal/platform/httpserver"
	"manifestgate/internal/platform/logger"
	"manifestgate/internal/platform/metrics"
	platformredis "manifestgate/internal/platform/redis"
	"manifestgate/internal/storage"
	httptransport "manifestgate/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	cipher, err := crypto.New(cfg.FieldKeyHex)
	if err != nil {
		log.WithError(err).Fatal("field encryption key rejected")
	}

	var stores struct {
		crew      storage.CrewStore
		certs     storage.CertificationStore
		vessels   storage.VesselStore
		sailings  storage.SailingStore
		pax       storage.PassengerStore
		manifests storage.ManifestStore
		users     storage.UserStore
		auditlog  storage.AuditStore
	}
	if cfg.PostgresDSN != "" {
		db, err := storage.Open(cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("postgres connection failed")
		}
		defer db.Close()
		pg := storage.NewPostgres(db)
		stores.crew, stores.certs, stores.vessels = pg, pg, pg
		stores.sailings, stores.pax, stores.manifests = pg, pg, pg
		stores.users, stores.auditlog = pg, pg
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		stores.crew = storage.NewInMemoryCrewStore()
		stores.certs = storage.NewInMemoryCertificationStore()
		stores.vessels = storage.NewInMemoryVesselStore()
		stores.sailings = storage.NewInMemorySailingStore()
		stores.pax = storage.NewInMemoryPassengerStore()
		stores.manifests = storage.NewInMemoryManifestStore()
		stores.users = storage.NewInMemoryUserStore()
		stores.auditlog = storage.NewInMemoryAuditStore()
	}

	m := metrics.New()

	var sinks []audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.WithError(err).Fatal("kafka audit sink failed to start")
		}
		if kafkaSink != nil {
			defer kafkaSink.Close()

			// Broker publishes go through a buffered worker so a slow broker
			// never holds a request.
			inbox := make(chan domain.AuditLogEntry, 256)
			sinks = append(sinks, audit.NewChannelSink(inbox))
			worker := audit.NewWorker(kafkaSink, inbox, log)
			workerCtx, stopWorker := context.WithCancel(context.Background())
			defer stopWorker()
			go func() { _ = worker.Run(workerCtx) }()
		}
	}
	ledger := audit.NewLedger(stores.auditlog, stores.users, log, m, sinks...)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("redis connection failed")
	}
	var manningCache *manning.DocumentCache
	if redisClient != nil {
		defer redisClient.Close()
		manningCache = manning.NewDocumentCache(redisClient.Client, config.ManningCacheTTL, log)
	}

	fleetSvc := fleet.NewService(stores.vessels, stores.sailings, ledger)
	crewSvc := crew.NewService(stores.crew, stores.vessels, ledger)
	certSvc := certification.NewService(stores.certs, stores.crew, ledger)
	paxSvc := passenger.NewService(stores.pax, stores.sailings, stores.manifests, cipher, ledger)
	manifestSvc := manifest.NewService(stores.manifests, stores.pax, stores.sailings,
		manifest.Validator{MinimumAge: cfg.MinimumAge}, ledger, m)
	exportSvc := manifest.NewExportService(stores.manifests, stores.pax, stores.sailings, cipher, ledger, m)
	manningSvc := manning.NewService(stores.vessels, stores.crew, manningCache, ledger, m)

	dispatcher := jurisdiction.NewDispatcher(
		stores.sailings, stores.vessels, stores.crew, stores.manifests, ledger,
		jurisdiction.NewFlagState(stores.vessels),
		jurisdiction.NewPassengerData([]string{"FIHEL", "FITKU", "EETLL"}),
		jurisdiction.NewCrewCertificates([]string{"EETLL"}, stores.certs),
	)

	handler := httptransport.NewHandler(fleetSvc, crewSvc, certSvc, paxSvc, manifestSvc, exportSvc, manningSvc, dispatcher, ledger, log)
	router := httptransport.NewRouter(handler, []byte(cfg.JWTSigningKey))

	srv := httpserver.New(cfg.Addr, router)
	log.WithField("addr", cfg.Addr).Info("starting manifestgate")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("graceful shutdown failed")
	}
}
