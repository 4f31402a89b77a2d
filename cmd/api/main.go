package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"shipslot/internal/config"
	"shipslot/internal/database"
	"shipslot/internal/middleware"
	"shipslot/internal/modules/booking"
	"shipslot/internal/modules/catalog"
	"shipslot/internal/modules/extracharge"
	"shipslot/internal/modules/notify"
	"shipslot/internal/modules/payment"
	"shipslot/internal/modules/pricing"
	"shipslot/internal/pkg/images"
	jwtsvc "shipslot/internal/pkg/jwt"
	"shipslot/internal/pkg/labels"
	"shipslot/internal/pkg/obs"
	"shipslot/internal/pkg/sequence"
	"shipslot/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.OTLPEndpoint != "" {
		shutdown, err := obs.InitTracer(cfg.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			log.Printf("level=error msg=tracer init failed err=%v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	extraRepo := repository.NewExtraChargeRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	seqRepo := repository.NewSequenceRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	locker := repository.NewAdvisoryLocker(db)

	allocator := sequence.New(seqRepo, locker, log.Printf)

	var pub *notify.Publisher
	if cfg.RabbitURL != "" {
		pub, err = notify.NewPublisher(cfg.RabbitURL, cfg.NotifyExchange)
		if err != nil {
			log.Printf("level=error msg=mq publisher init failed err=%v", err)
			pub = nil
		} else {
			defer pub.Close()
		}
	}
	hub := notify.NewHub()
	var notifySvc *notify.Service
	if pub != nil {
		notifySvc = notify.NewService(notifRepo, pub, hub, log.Printf)
	} else {
		notifySvc = notify.NewService(notifRepo, nil, hub, log.Printf)
	}
	notifyHandler := notify.NewHandler(notifySvc, hub, log.Printf)

	fees := pricing.FeePolicy{
		ProcessorBps:   cfg.ProcessorFeeBps,
		ProcessorFixed: cfg.ProcessorFeeFixed,
	}

	var proc *payment.OmiseProcessor
	if cfg.OmiseSecretKey != "" {
		proc, err = payment.NewOmiseProcessor(cfg.OmisePublicKey, cfg.OmiseSecretKey)
		if err != nil {
			log.Fatalf("omise: %v", err)
		}
	}

	var paymentSvc *payment.Service
	if proc != nil {
		paymentSvc = payment.NewService(paymentRepo, bookingRepo, companyRepo, allocator, proc, cfg.Currency, log.Printf)
	}

	imgStore := images.NewStore(cfg.ImageDir, cfg.ImageURLPrefix, log.Printf)

	labelClient := labels.NewClient(cfg.LabelServiceURL)
	var labelGen booking.LabelGenerator
	if labelClient.Enabled() {
		labelGen = labelClient
	}
	var refunds booking.RefundInitiator
	if paymentSvc != nil {
		refunds = paymentSvc
	}

	bookingSvc := booking.NewService(bookingRepo, slotRepo, companyRepo, allocator,
		notifySvc, labelGen, imgStore, refunds, fees, log.Printf)
	bookingHandler := booking.NewHandler(bookingSvc)

	catalogSvc := catalog.NewService(slotRepo, companyRepo)
	catalogHandler := catalog.NewHandler(catalogSvc)

	var extraSvc *extracharge.Service
	var extraHandler *extracharge.Handler
	if proc != nil {
		extraSvc = extracharge.NewService(extraRepo, bookingRepo, companyRepo, allocator,
			notifySvc, proc, fees, cfg.Currency, cfg.ExtraChargeTTL, log.Printf)
		extraHandler = extracharge.NewHandler(extraSvc)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	r := gin.Default()
	r.Use(middleware.CORS(), middleware.ErrorLogger())
	r.Static(imgStore.URLPrefix(), imgStore.BaseDir())

	v1 := r.Group("/api/v1")
	{
		catalogHandler.RegisterPublicRoutes(v1)

		if paymentSvc != nil && extraSvc != nil {
			paymentHandler := payment.NewHandler(paymentSvc, proc, extraSvc, log.Printf)
			paymentHandler.RegisterWebhookRoutes(v1)

			protected := v1.Group("/")
			protected.Use(middleware.Auth(j))
			paymentHandler.RegisterProtectedRoutes(protected)
		}

		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			bookingHandler.RegisterRoutes(protected)
			catalogHandler.RegisterProtectedRoutes(protected)
			notifyHandler.RegisterRoutes(protected)
			images.NewHandler(imgStore).RegisterRoutes(protected)
			if extraHandler != nil {
				extraHandler.RegisterRoutes(protected)
			}
		}
	}

	log.Printf("level=info msg=api listening addr=%s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
