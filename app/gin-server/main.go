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
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vocollect/vocollect/config"
	"github.com/vocollect/vocollect/internal/api/handlers"
	"github.com/vocollect/vocollect/internal/api/middleware"
	"github.com/vocollect/vocollect/internal/api/routes"
	"github.com/vocollect/vocollect/internal/cache"
	"github.com/vocollect/vocollect/internal/logger"
	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/providers/llm"
	"github.com/vocollect/vocollect/internal/providers/stt"
	"github.com/vocollect/vocollect/internal/providers/tts"
	mongorepo "github.com/vocollect/vocollect/internal/repositories/mongo"
	pgrepo "github.com/vocollect/vocollect/internal/repositories/postgres"
	"github.com/vocollect/vocollect/internal/services"
	"github.com/vocollect/vocollect/internal/storage"
	"github.com/vocollect/vocollect/internal/telephony"
	"github.com/vocollect/vocollect/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Data stores are hard dependencies.
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("mongodb init failed")
	}
	log.Info("mongodb connected")

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("postgresql init failed")
	}
	log.Info("postgresql connected")

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	log.Info("redis connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("mongodb index setup failed")
	}
	if err := config.PostgresDB.AutoMigrate(&models.Borrower{}); err != nil {
		log.WithError(err).Fatal("postgres migration failed")
	}

	mongoDB := config.MongoClient.Database(config.MongoDBName())
	sessions := mongorepo.NewCallSessionRepo(mongoDB)
	borrowers := services.NewBorrowerService(
		pgrepo.NewBorrowerRepo(config.PostgresDB),
		cache.NewRedisCache(config.RedisClient),
	)

	policies := config.LoadPolicies()

	// External capabilities degrade instead of failing startup: a missing
	// credential logs a warning and the service runs with that capability
	// disabled.
	var sttProvider stt.Provider = stt.Disabled{}
	if p, err := stt.NewGoogleSpeech(ctx); err != nil {
		log.WithError(err).Warn("speech recognition disabled")
	} else {
		sttProvider = p
		defer p.Close()
	}

	var ttsProvider tts.Provider = tts.Disabled{}
	speakers := make(map[string]string, len(policies))
	for lang, p := range policies {
		speakers[lang] = p.Speaker
	}
	if p, err := tts.NewSarvam(os.Getenv("SARVAM_API_KEY"), speakers); err != nil {
		log.WithError(err).Warn("speech synthesis disabled")
	} else {
		ttsProvider = p
	}

	var llmChain llm.Chain
	if p, err := llm.NewGroq(os.Getenv("GROQ_API_KEY"), os.Getenv("GROQ_MODEL")); err != nil {
		log.WithError(err).Warn("primary language model disabled")
	} else {
		llmChain = append(llmChain, p)
	}
	if projectID := os.Getenv("VERTEX_PROJECT_ID"); projectID != "" {
		p, err := llm.NewVertexGemini(ctx, projectID, os.Getenv("VERTEX_LOCATION"), os.Getenv("VERTEX_MODEL"))
		if err != nil {
			log.WithError(err).Warn("fallback language model disabled")
		} else {
			llmChain = append(llmChain, p)
			defer p.Close()
		}
	}
	var llmProvider llm.Provider = llmChain
	if len(llmChain) == 0 {
		log.Warn("no language model configured, calls degrade to canned acknowledgments")
		llmProvider = llm.Disabled{}
	}

	var voice telephony.Provider = telephony.Disabled{}
	if keyPath := os.Getenv("VONAGE_PRIVATE_KEY_PATH"); keyPath != "" {
		key, err := os.ReadFile(keyPath)
		if err != nil {
			log.WithError(err).Warn("outbound calling disabled, cannot read private key")
		} else {
			v, err := telephony.NewVonage(telephony.VonageConfig{
				ApplicationID: os.Getenv("VONAGE_APPLICATION_ID"),
				PrivateKey:    key,
				FromNumber:    os.Getenv("VONAGE_FROM_NUMBER"),
				PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
			})
			if err != nil {
				log.WithError(err).Warn("outbound calling disabled")
			} else {
				voice = v
			}
		}
	} else {
		log.Warn("outbound calling disabled, VONAGE_PRIVATE_KEY_PATH not set")
	}

	var archive storage.Uploader
	var signer storage.Signer
	if bucket := os.Getenv("TRANSCRIPT_BUCKET"); bucket != "" {
		u, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Warn("transcript archiving disabled")
		} else {
			archive = u
			signer = u
			defer u.Close()
		}
	}

	calls := services.NewCallService(services.CallServiceConfig{
		Sessions:      sessions,
		Borrowers:     borrowers,
		Voice:         voice,
		Redis:         config.RedisClient,
		Policies:      policies,
		STT:           sttProvider,
		TTS:           ttsProvider,
		LLM:           llmProvider,
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		FromNumber:    os.Getenv("VONAGE_FROM_NUMBER"),
		Logger:        log,
	})
	sessionSvc := services.NewSessionService(sessions)

	pool := &workers.AnalysisWorkerPool{
		Redis:     config.RedisClient,
		Sessions:  sessions,
		Borrowers: borrowers,
		Analyzer:  llm.NewAnalyzer(llmProvider, logrus.NewEntry(log)),
		Archive:   archive,
		Logger:    log,
	}
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Fatal("analysis worker pool failed to start")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Call:     handlers.NewCallHandler(calls),
		Borrower: handlers.NewBorrowerHandler(borrowers),
		Session:  handlers.NewSessionHandler(sessionSvc, signer),
		Webhook:  handlers.NewWebhookHandler(calls, log),
		Stream:   handlers.NewStreamHandler(calls, config.RedisClient, log),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.WithField("port", port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
