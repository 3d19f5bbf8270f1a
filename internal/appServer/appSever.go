package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/classbooker/config"
	repository "github.com/ds124wfegd/classbooker/internal/database/postgres"
	"github.com/ds124wfegd/classbooker/internal/service"
	"github.com/ds124wfegd/classbooker/internal/transport"
	"github.com/ds124wfegd/classbooker/internal/worker"

	"github.com/ds124wfegd/classbooker/pkg/lock"
	"github.com/ds124wfegd/classbooker/pkg/postgres"
	"github.com/ds124wfegd/classbooker/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db)
	packageRepo := repository.NewUserPackageRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)

	// Initialize Redis-backed session lock
	redisClient := redis.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()
	sessionLock := lock.NewRedisLock(redisClient)

	// Initialize services
	policy := service.BookingPolicy{
		RefundCutoff: time.Duration(cfg.Booking.RefundCutoffHours) * time.Hour,
		CheckInOpen:  time.Duration(cfg.Booking.CheckInOpenMinutes) * time.Minute,
	}
	scheduleService := service.NewScheduleService(
		sessionRepo,
		packageRepo,
		bookingRepo,
		waitlistRepo,
		sessionLock,
		cfg.Lock.KeyPrefix,
		cfg.Lock.Lease,
		policy,
		logrus.StandardLogger(),
	)
	sessionService := service.NewSessionService(sessionRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize refund worker
	refundWorker := worker.NewWaitlistRefundWorker(
		scheduleService,
		time.Duration(cfg.Worker.SweepIntervalMinutes)*time.Minute,
	)
	go refundWorker.Start(ctx)
	logrus.Info("Waitlist refund worker started")

	// Initialize handlers
	scheduleHandler := transport.NewScheduleHandler(scheduleService)
	sessionHandler := transport.NewSessionHandler(sessionService)

	// Setup HTTP server
	if cfg.Server.Env == "production" || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(scheduleHandler, sessionHandler)); err != nil {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
