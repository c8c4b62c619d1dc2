package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"docclassifier-backend/internal/admin"
	googleauth "docclassifier-backend/internal/auth"
	"docclassifier-backend/internal/credits"
	"docclassifier-backend/internal/documents"
	"docclassifier-backend/internal/engine"
	"docclassifier-backend/internal/extract"
	"docclassifier-backend/internal/llm"
	"docclassifier-backend/internal/llm/gemini"
	"docclassifier-backend/internal/pipeline"
	"docclassifier-backend/internal/queue"
	"docclassifier-backend/internal/shared/config"
	"docclassifier-backend/internal/shared/server"
	"docclassifier-backend/internal/shared/storage/db"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Queue  queue.Client

	DocumentsRepo    documents.Repo
	AdminRepo        admin.Repo
	CreditsService   *credits.Service
	DocumentsService *documents.Service
	AdminService     *admin.Service
	PipelineService  *pipeline.Service
	GoogleAuth       *googleauth.GoogleService

	CreditsHandler   *credits.Handler
	DocumentsHandler *documents.Handler
	PipelineHandler  *pipeline.Handler
	AdminHandler     *admin.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		CreditsHandler:   app.CreditsHandler,
		DocumentsHandler: app.DocumentsHandler,
		PipelineHandler:  app.PipelineHandler,
		AdminHandler:     app.AdminHandler,
		GoogleAuth:       app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv(queue.QueueURLEnv)) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	var creditsSvc *credits.Service
	var docRepo documents.Repo
	var adminRepo admin.Repo
	if app.DB != nil {
		creditsSvc = credits.NewPostgresService(credits.NewPGStore(app.DB))
		docRepo = &documents.PGRepo{DB: app.DB}
		adminRepo = admin.NewPGRepo(app.DB)
	} else {
		creditsSvc = credits.NewService()
		docRepo = documents.NewMemoryRepo()
		adminRepo = admin.NewMemoryRepo()
	}

	tree := documents.NewFileTree(cfg.StoreDir)
	docSvc := documents.NewService(tree, docRepo)

	timeout := time.Duration(cfg.EngineTimeoutSec) * time.Second
	preproc := &engine.RunnerPreprocess{Runner: engine.NewRunner(cfg.PythonBin, cfg.PreprocessScript, timeout)}
	classify := &engine.RunnerClassify{Runner: engine.NewRunner(cfg.PythonBin, cfg.ClassifyScript, timeout)}
	ocr := &engine.RunnerOCR{Runner: engine.NewRunner(cfg.PythonBin, cfg.OCRScript, timeout)}
	extractor := extract.NewExtractor(ocr)

	gen := buildGenerative(cfg)

	pipelineSvc := pipeline.NewService(creditsSvc, docSvc, extractor, preproc, classify, gen)
	adminSvc := admin.NewService(adminRepo)

	googleAuthSvc := googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		creditsSvc,
	)

	app.DocumentsRepo = docRepo
	app.AdminRepo = adminRepo
	app.CreditsService = creditsSvc
	app.DocumentsService = docSvc
	app.AdminService = adminSvc
	app.PipelineService = pipelineSvc
	app.GoogleAuth = googleAuthSvc
	app.CreditsHandler = credits.NewHandler(creditsSvc)
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.PipelineHandler = pipeline.NewHandler(pipelineSvc)
	app.PipelineHandler.Queue = app.Queue
	app.AdminHandler = admin.NewHandler(adminSvc, creditsSvc, docRepo)
	return nil
}

// buildGenerative wires the Gemini client when a credential is present. With
// no credential the pipeline falls back to extractive summaries and skips
// overrides.
func buildGenerative(cfg config.Config) llm.Client {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		log.Printf("bootstrap: GEMINI_API_KEY empty; generative features disabled")
		return nil
	}
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey})
	client, err := gemini.NewClient(cfg.GeminiModel, tokens)
	if err != nil {
		log.Printf("bootstrap: gemini client unavailable: %v", err)
		return nil
	}
	return client
}
