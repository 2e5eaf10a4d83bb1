package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"cvanswers/engine"
	"cvanswers/ocr"
)

// Global Variables and Constants
var (

	// Logger
	log = logrus.New()

	// Environment Variables
	answersFile         = os.Getenv("ANSWERS_FILE")
	datasetDir          = os.Getenv("DATASET_DIR")
	recognizerProvider  = os.Getenv("RECOGNIZER_PROVIDER")
	easyOCRURL          = os.Getenv("EASYOCR_URL")
	tessdataPrefix      = os.Getenv("TESSDATA_PREFIX")
	visionLlmProvider   = os.Getenv("VISION_LLM_PROVIDER")
	visionLlmModel      = os.Getenv("VISION_LLM_MODEL")
	visionLlmPrompt     = os.Getenv("VISION_LLM_PROMPT")
	recognizerRPM       = os.Getenv("RECOGNIZER_RATE_LIMIT_RPM")
	downloadRPM         = os.Getenv("DOWNLOAD_RATE_LIMIT_RPM")
	autoProcessEnabled  = strings.ToLower(os.Getenv("AUTO_PROCESS")) == "true"
	fetchOriginalsByEnv = strings.ToLower(os.Getenv("FETCH_ORIGINALS")) == "true"
	listenAddr          = os.Getenv("LISTEN_ADDR")
	logLevel            = strings.ToLower(os.Getenv("LOG_LEVEL"))
)

// App struct to hold dependencies
type App struct {
	Store    *AnswerStore
	Database *gorm.DB
	Fetcher  *ImageFetcher

	DatasetDir     string
	fetchOriginals bool

	recognizer  engine.Recognizer
	processorMu sync.RWMutex
	processor   ImageProcessor
}

// Processor returns the currently active pipeline.
func (app *App) Processor() ImageProcessor {
	app.processorMu.RLock()
	defer app.processorMu.RUnlock()
	return app.processor
}

// SetProcessor swaps the active pipeline. In-flight entries finish on the
// pipeline they started with.
func (app *App) SetProcessor(p ImageProcessor) {
	app.processorMu.Lock()
	defer app.processorMu.Unlock()
	app.processor = p
}

// RefreshPipeline rebuilds the pipeline from the current settings.
func (app *App) RefreshPipeline() {
	if app.recognizer == nil {
		return
	}
	app.SetProcessor(engine.NewPipeline(app.recognizer, getEngineConfig(), nil))
	log.Info("Pipeline rebuilt with updated settings")
}

func (app *App) datasetPath(filename string) string {
	return filepath.Join(app.DatasetDir, filename)
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()
	refreshEnvVars()

	// Validate Environment Variables
	validateEnvVars()

	// Initialize logrus logger
	initLogger()

	// Load persisted tunables
	loadSettings()

	// Open the answer set
	store, err := OpenAnswerStore(answersFile)
	if err != nil {
		log.Fatalf("Failed to open answer file: %v", err)
	}
	log.Infof("Loaded %d answer entries from %s", store.Len(), answersFile)

	// Initialize Database
	database := InitializeDB()

	// Initialize the recognizer backend
	recognizer, err := ocr.NewProvider(ocr.Config{
		Provider:          recognizerProvider,
		EasyOCRURL:        easyOCRURL,
		TessdataPrefix:    tessdataPrefix,
		VisionLLMProvider: visionLlmProvider,
		VisionLLMModel:    visionLlmModel,
		VisionLLMPrompt:   visionLlmPrompt,
	})
	if err != nil {
		log.Fatalf("Failed to create recognizer: %v", err)
	}

	if rpm := parseRPM(recognizerRPM); rpm > 0 {
		recognizer = ocr.NewRateLimitedRecognizer(recognizer, ocr.RateLimitConfig{
			RequestsPerMinute: rpm,
		})
		log.Infof("Recognizer rate limited to %.1f requests/minute", rpm)
	}

	fetcher := NewImageFetcher(filepath.Join(datasetDir, "originals"), parseRPM(downloadRPM))

	// Initialize App with dependencies
	app := &App{
		Store:          store,
		Database:       database,
		Fetcher:        fetcher,
		DatasetDir:     datasetDir,
		fetchOriginals: fetchOriginalsByEnv,
		recognizer:     recognizer,
	}
	app.RefreshPipeline()

	// Start background processing of unresolved entries
	if autoProcessEnabled {
		StartBackgroundTasks(context.Background(), app)
		log.Info("Background processing of unresolved entries enabled")
	}

	// Create a Gin router with default middleware (logger and recovery)
	router := gin.Default()

	// API routes
	api := router.Group("/api")
	{
		api.GET("/answers", app.getAnswersHandler)
		api.GET("/answers/:filename", app.getAnswerHandler)
		api.PATCH("/answers/:filename", app.updateAnswerHandler)
		api.GET("/stats", app.getStatsHandler)

		// Extraction jobs
		api.POST("/extract", app.submitExtractJobHandler)
		api.GET("/jobs/:job_id", app.getJobStatusHandler)
		api.GET("/jobs", app.getAllJobsHandler)

		// Local db actions
		api.GET("/modifications", app.getModificationHistoryHandler)
		api.POST("/undo-modification/:id", app.undoModificationHandler)

		// Runtime tunables
		api.GET("/settings", getSettingsHandler)
		api.POST("/settings", app.updateSettingsHandler)

		// Which recognizer backend is active
		api.GET("/recognizer", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"provider": recognizerProvider})
		})
	}

	// Start extraction worker pool
	numWorkers := 1 // Dataset runs hammer the recognizer enough on their own
	startWorkerPool(app, numWorkers)

	addr := listenAddr
	if addr == "" {
		addr = ":8080"
	}
	log.Infoln("Server started on", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// refreshEnvVars re-reads the environment after godotenv merged a .env file
// into it. Package-level reads above happen before main runs.
func refreshEnvVars() {
	answersFile = os.Getenv("ANSWERS_FILE")
	datasetDir = os.Getenv("DATASET_DIR")
	recognizerProvider = os.Getenv("RECOGNIZER_PROVIDER")
	easyOCRURL = os.Getenv("EASYOCR_URL")
	tessdataPrefix = os.Getenv("TESSDATA_PREFIX")
	visionLlmProvider = os.Getenv("VISION_LLM_PROVIDER")
	visionLlmModel = os.Getenv("VISION_LLM_MODEL")
	visionLlmPrompt = os.Getenv("VISION_LLM_PROMPT")
	recognizerRPM = os.Getenv("RECOGNIZER_RATE_LIMIT_RPM")
	downloadRPM = os.Getenv("DOWNLOAD_RATE_LIMIT_RPM")
	autoProcessEnabled = strings.ToLower(os.Getenv("AUTO_PROCESS")) == "true"
	fetchOriginalsByEnv = strings.ToLower(os.Getenv("FETCH_ORIGINALS")) == "true"
	listenAddr = os.Getenv("LISTEN_ADDR")
	logLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
}

func initLogger() {
	switch logLevel {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		if logLevel != "" {
			log.Fatalf("Invalid log level: '%s'.", logLevel)
		}
	}

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	engine.SetLogLevel(log.GetLevel())
	ocr.SetLogLevel(log.GetLevel())
}

// validateEnvVars ensures all necessary environment variables are set
func validateEnvVars() {
	if answersFile == "" {
		log.Fatal("Please set the ANSWERS_FILE environment variable.")
	}

	if datasetDir == "" {
		log.Fatal("Please set the DATASET_DIR environment variable.")
	}

	if recognizerProvider == "" {
		log.Fatal("Please set the RECOGNIZER_PROVIDER environment variable to 'easyocr', 'tesseract' or 'llm'.")
	}

	if recognizerProvider == "easyocr" && easyOCRURL == "" {
		log.Fatal("Please set the EASYOCR_URL environment variable for the EasyOCR provider.")
	}

	if recognizerProvider == "llm" {
		if visionLlmProvider != "openai" && visionLlmProvider != "ollama" {
			log.Fatal("Please set the VISION_LLM_PROVIDER environment variable to 'openai' or 'ollama'.")
		}
		if visionLlmModel == "" {
			log.Fatal("Please set the VISION_LLM_MODEL environment variable.")
		}
		if visionLlmProvider == "openai" && os.Getenv("OPENAI_API_KEY") == "" {
			log.Fatal("Please set the OPENAI_API_KEY environment variable for OpenAI provider.")
		}
	}
}

func parseRPM(value string) float64 {
	if value == "" {
		return 0
	}
	rpm, err := strconv.ParseFloat(value, 64)
	if err != nil || rpm < 0 {
		log.Warnf("Invalid rate limit %q, rate limiting disabled", value)
		return 0
	}
	return rpm
}
