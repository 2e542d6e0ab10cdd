package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"

	"voicechat/internal/ai"
	"voicechat/internal/delivery"
	"voicechat/internal/domain"
	"voicechat/internal/error_notificator"
	"voicechat/internal/infra"
	"voicechat/internal/metrics"
	"voicechat/internal/ports"
	"voicechat/internal/session"
	"voicechat/internal/speech"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / DB INIT
	// =========================================================================

	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// the turn archive is optional: without DATABASE_URL the transcript
	// lives in memory only
	var turnArchive ports.TurnArchive
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db ping failed: %v", err)
		}
		defer db.Close()

		turnArchive = infra.NewTurnRepo(db)
	} else {
		log.Println("[init] DATABASE_URL not set, turn archive disabled")
	}

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	var clipStore ports.ClipStore
	if store, err := infra.NewClipStore(); err != nil {
		log.Printf("[init] clip store disabled: %v", err)
	} else {
		clipStore = store
	}

	m := metrics.NewMetrics()

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	errInfra := error_notificator.NewInfra()
	errService := error_notificator.NewService(errInfra)

	// =========================================================================
	// CLIENTS (STT / AI / TTS)
	// =========================================================================

	sttClient := speech.NewGoogleSTTClient()
	ttsClient := speech.NewGoogleTTSClient()
	groqClient := ai.NewGroqClient()

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	sessions := session.NewManager()

	speechService := speech.NewService(sttClient, ttsClient)
	aiService := ai.NewAiService(groqClient, errService)

	turnService := domain.NewTurnService(
		sessions,
		speechService,
		aiService,
		turnArchive,
		clipStore,
		errService,
		m,
	)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// HANDLERS
	turnHandler := delivery.NewTurnHandler(turnService, zl)
	historyHandler := delivery.NewHistoryHandler(sessions, turnArchive, zl)

	// ROUTES
	delivery.RegisterRoutes(r, turnHandler, historyHandler)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "voicechat",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
