package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voterscan/internal/config"
	"github.com/voterscan/internal/database"
	"github.com/voterscan/internal/gemini"
	"github.com/voterscan/internal/jobs"
	"github.com/voterscan/internal/logger"
	"github.com/voterscan/internal/pipeline"
	"github.com/voterscan/internal/queue"
	"github.com/voterscan/internal/server"
	"github.com/voterscan/internal/watcher"
	"github.com/voterscan/internal/worker"
)

var (
	configPath = flag.String("config", "", "Path to config file (YAML)")
	httpPort   = flag.Int("http-port", 0, "HTTP server port (overrides config)")
	dbPath     = flag.String("db-path", "", "SQLite database path (overrides config)")
)

func main() {
	flag.Parse()

	// .env is optional; the environment wins either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	appLogger, err := logger.Init(cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	// Route stdlib log through the app logger so the live log stream
	// sees every line.
	log.SetOutput(appLogger.Writer())
	log.SetFlags(0)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("failed to initialize schema: %v", err)
	}

	if cfg.Gemini.APIKey == "" {
		log.Fatalf("no Gemini API key configured (set GEMINI_API_KEY or gemini.api_key)")
	}

	ctx := context.Background()
	generator, genaiClient, err := gemini.NewGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatalf("failed to create Gemini client: %v", err)
	}
	defer genaiClient.Close()

	counter := &gemini.TokenCounter{}
	extractor := gemini.NewExtractor(generator, cfg.Gemini.MaxConcurrent, cfg.Gemini.Retries, counter)
	processor := pipeline.NewProcessor(extractor, cfg.Extraction.DPI, cfg.Extraction.MatchThreshold)

	// Redis-backed queue if configured, in-memory otherwise.
	var jobQueue queue.Queue
	redisClient, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Printf("warning: Redis unavailable, falling back to in-memory queue: %v", err)
	}
	if redisClient != nil {
		jobQueue, err = queue.NewRedisQueue(redisClient, "")
		if err != nil {
			log.Fatalf("failed to create Redis queue: %v", err)
		}
		log.Printf("Using Redis job queue")
	} else {
		jobQueue = queue.NewMemoryQueue(256)
		log.Printf("Using in-memory job queue")
	}

	registry := jobs.NewRegistry()
	extractHandler := worker.NewExtractHandler(processor, registry, cfg.Database.Path)

	workerCtx, workerCancel := context.WithCancel(ctx)
	handler := func(ctx context.Context, job queue.Job) error {
		switch job.Type {
		case jobs.JobTypeExtract:
			return extractHandler.Handle(ctx, job)
		default:
			log.Printf("unknown job type: %s", job.Type)
			return nil
		}
	}

	go func() {
		log.Printf("Starting %d background workers", cfg.Extraction.WorkerCount)
		worker.StartWorkers(workerCtx, jobQueue, handler, cfg.Extraction.WorkerCount)
	}()

	var watchMgr *watcher.Manager
	if cfg.Watch.Enabled {
		watchMgr = watcher.NewManager(cfg.Watch.Paths, jobQueue, registry)
		if err := watchMgr.Start(); err != nil {
			log.Fatalf("failed to start watch folders: %v", err)
		}
		log.Printf("Watching %v for new PDFs", cfg.Watch.Paths)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: routes(cfg, db, jobQueue, registry, counter, appLogger),
	}

	go func() {
		log.Printf("HTTP server listening on %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, workerCancel, watchMgr)
}

func routes(cfg *config.Config, db *sql.DB, jobQueue queue.Queue, registry *jobs.Registry, counter *gemini.TokenCounter, appLogger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", server.HandleWeb)
	mux.HandleFunc("/dashboard", server.HandleDashboard)

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		server.HandleUpload(w, r, cfg.Server.UploadDir, jobQueue, registry)
	})
	mux.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		server.HandleStatus(w, r, registry)
	})

	mux.HandleFunc("/download/csv", func(w http.ResponseWriter, r *http.Request) {
		server.HandleDownloadCSV(w, r, db)
	})
	mux.HandleFunc("/download/xlsx", func(w http.ResponseWriter, r *http.Request) {
		server.HandleDownloadXLSX(w, r, db)
	})

	mux.HandleFunc("/api/documents", func(w http.ResponseWriter, r *http.Request) {
		server.HandleDocuments(w, r, db)
	})
	mux.HandleFunc("/api/sections/", func(w http.ResponseWriter, r *http.Request) {
		server.HandleSections(w, r, db)
	})
	mux.HandleFunc("/api/analytics/document/", func(w http.ResponseWriter, r *http.Request) {
		server.HandleDocumentAnalytics(w, r, db)
	})
	mux.HandleFunc("/api/analytics/section/", func(w http.ResponseWriter, r *http.Request) {
		server.HandleSectionAnalytics(w, r, db)
	})
	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		server.HandleEvents(w, r, db)
	})
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		server.HandleStats(w, r, counter, db)
	})

	mux.HandleFunc("/ws/logs", func(w http.ResponseWriter, r *http.Request) {
		server.HandleLogSocket(w, r, appLogger)
	})

	return mux
}

func waitForShutdown(httpServer *http.Server, workerCancel context.CancelFunc, watchMgr *watcher.Manager) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Println("Shutting down...")

	if watchMgr != nil {
		watchMgr.Stop()
	}
	workerCancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
