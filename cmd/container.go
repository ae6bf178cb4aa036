// cmd/container.go
//
// Composition root. Owns infrastructure (Postgres, Redis, file readers, AI
// providers) and wires the analysis pipeline onto the job engine. This is
// the only place that knows about every module at once.
package main

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/lectio/pkg/ai/llm"
	"github.com/Abraxas-365/lectio/pkg/ai/ocr"
	"github.com/Abraxas-365/lectio/pkg/ai/ocr/ocrvision"
	"github.com/Abraxas-365/lectio/pkg/ai/providers/aigemini"
	"github.com/Abraxas-365/lectio/pkg/ai/providers/aiopenai"
	"github.com/Abraxas-365/lectio/pkg/analysis"
	"github.com/Abraxas-365/lectio/pkg/analysis/analysisapi"
	"github.com/Abraxas-365/lectio/pkg/analysis/analysisinfra"
	"github.com/Abraxas-365/lectio/pkg/config"
	"github.com/Abraxas-365/lectio/pkg/fsx"
	"github.com/Abraxas-365/lectio/pkg/fsx/fsxhttp"
	"github.com/Abraxas-365/lectio/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/lectio/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/lectio/pkg/jobx"
	"github.com/Abraxas-365/lectio/pkg/logx"
)

// Container holds shared infrastructure and the composed analysis module.
type Container struct {
	Config *config.Config

	DB    *sqlx.DB
	Redis *redis.Client
	Files fsx.FileReader

	Engine           *jobx.Engine
	AnalysisService  *analysis.Service
	AnalysisHandlers *analysisapi.Handlers
}

// NewContainer builds everything. Fatal on unreachable infrastructure: a
// half-wired process is worse than a crashed one.
func NewContainer(cfg *config.Config) *Container {
	logx.Info("initializing application container")

	c := &Container{Config: cfg}
	c.initInfrastructure()
	c.initAnalysis()

	logx.Info("application container initialized")
	return c
}

func (c *Container) initInfrastructure() {
	cfg := c.Config

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logx.WithError(err).Fatal("could not connect to postgres")
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("postgres connected")

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := c.Redis.Ping(context.Background()).Err(); err != nil {
		logx.WithError(err).Fatal("could not connect to redis")
	}
	logx.Info("redis connected")

	c.Files = c.buildFileRouter()
}

// buildFileRouter assembles the document source: local disk or S3 for
// uploaded files, HTTP for remote references.
func (c *Container) buildFileRouter() fsx.FileReader {
	cfg := c.Config
	router := &fsx.Router{
		Remote: fsxhttp.NewHTTPReader(fsxhttp.WithTimeout(cfg.Analysis.FetchTimeout)),
	}

	switch cfg.Storage.Mode {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.Storage.AWSRegion))
		if err != nil {
			logx.WithError(err).Fatal("could not load AWS config")
		}
		s3Reader := fsxs3.NewS3Reader(s3.NewFromConfig(awsCfg), cfg.Storage.AWSBucket)
		router.Object = s3Reader
		router.Local = s3Reader
		logx.WithField("bucket", cfg.Storage.AWSBucket).Info("document storage: s3")
	default:
		local, err := fsxlocal.NewLocalReader(cfg.Storage.LocalPath)
		if err != nil {
			logx.WithError(err).Fatal("could not open local storage path")
		}
		router.Local = local
		logx.WithField("path", cfg.Storage.LocalPath).Info("document storage: local")
	}
	return router
}

func (c *Container) initAnalysis() {
	cfg := c.Config

	chatClient := c.buildLLMClient()

	var recognizer ocr.TextRecognizer
	if chatClient != nil {
		model := cfg.AI.VisionModel
		recognizer = ocrvision.NewVisionRecognizer(chatClient, model)
	}

	c.Engine = jobx.NewEngine(
		jobx.WithConcurrency(cfg.Jobx.Concurrency),
		jobx.WithMaxAttempts(cfg.Jobx.MaxAttempts),
		jobx.WithRetryDelays(cfg.Jobx.RetryBaseDelay, cfg.Jobx.RetryMaxDelay),
		jobx.WithJobTimeout(cfg.Jobx.JobTimeout),
		jobx.WithProgressCadence(cfg.Jobx.ProgressCadence),
		jobx.WithShutdownTimeout(cfg.Jobx.ShutdownTimeout),
	)

	analysisCfg := analysis.Config{
		FetchTimeout:    cfg.Analysis.FetchTimeout,
		PDFTimeout:      cfg.Analysis.PDFTimeout,
		OCRTimeout:      cfg.Analysis.OCRTimeout,
		QuestionTimeout: cfg.Analysis.QuestionTimeout,
		ConceptTimeout:  cfg.Analysis.ConceptTimeout,
		MinTextLength:   cfg.Analysis.MinTextLength,
		PreviewLength:   cfg.Analysis.PreviewLength,
	}

	records := analysisinfra.NewRedisRecordStore(c.Redis)
	conceptStore := analysisinfra.NewPostgresConceptStore(c.DB)
	indexStore := analysisinfra.NewPostgresDocumentIndexStore(c.DB)

	var questionSvc analysis.QuestionService
	var conceptSvc analysis.ConceptService
	if chatClient != nil {
		questionSvc = analysis.NewLLMQuestionService(chatClient, cfg.AI.ChatModel, analysisCfg.QuestionTimeout)
		conceptSvc = analysis.NewLLMConceptService(chatClient, cfg.AI.ChatModel, analysisCfg.ConceptTimeout)
	} else {
		logx.Warn("no AI provider configured, running pattern-only extraction")
	}

	status := analysis.NewStatusStore(records, c.Engine)
	extractor := analysis.NewExtractor(c.Files, nil, recognizer, analysisCfg)
	analyzer := analysis.NewAnalyzer(
		extractor, questionSvc, conceptSvc, conceptStore,
		analysis.NewIndexer(indexStore, analysisCfg.PreviewLength),
		status, analysisCfg,
	)
	analyzer.Register(c.Engine)

	c.AnalysisService = analysis.NewService(c.Engine, status)
	c.AnalysisHandlers = analysisapi.NewHandlers(c.AnalysisService)
	logx.Info("analysis pipeline wired")
}

// buildLLMClient returns the configured chat provider, or nil when no API
// key is present.
func (c *Container) buildLLMClient() llm.Client {
	cfg := c.Config.AI
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil
		}
		client, err := aigemini.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logx.WithError(err).Fatal("could not initialize gemini provider")
		}
		return client
	default:
		if cfg.OpenAIAPIKey == "" {
			return nil
		}
		return aiopenai.NewOpenAIProvider(cfg.OpenAIAPIKey)
	}
}

// Cleanup releases infrastructure in reverse dependency order.
func (c *Container) Cleanup() {
	if c.Engine != nil {
		c.Engine.Stop()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.WithError(err).Warn("redis close failed")
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.WithError(err).Warn("postgres close failed")
		}
	}
	logx.Info("container cleaned up")
}
