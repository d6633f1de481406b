package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/application/services"
	"voice-campaign-api/config"
	"voice-campaign-api/infrastructure/adapters"
	"voice-campaign-api/infrastructure/gin_interface/controllers"
	"voice-campaign-api/middleware"
	mocktelephony "voice-campaign-api/mock"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	zeroLogger := adapters.NewZerologWrapper(cfg.LogLevel)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(cfg.S3.Region)},
		SharedConfigState: session.SharedConfigEnable,
	}))

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(cfg.Campaign.WorkerPoolSize, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	pipelinePool, err := ants.NewPool(cfg.Campaign.PipelineWorkers, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pipeline pool")
	}
	defer pipelinePool.Release()

	// Event streams hold their workers for as long as a client listens, so
	// they get their own pool that rejects instead of queueing.
	streamPool, err := ants.NewPool(cfg.Campaign.StreamWorkers, ants.WithNonblocking(true), ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stream pool")
	}
	defer streamPool.Release()

	httpClient := &http.Client{Timeout: cfg.Campaign.HttpTimeout}
	contentFetcher := adapters.NewContentFetcher(zeroLogger, httpClient)

	languageModel := adapters.NewChatCompletionClient(cfg.Gpt, httpClient, zeroLogger)
	speechSynthesis := adapters.NewAudioGenerator(contentFetcher, cfg.ElevenLabs, zeroLogger)
	audioStore := adapters.NewS3AudioStore(s3.New(sess), cfg.S3, zeroLogger)

	attemptRecorder := adapters.NewNopAttemptRecorder()
	if cfg.Dynamo.Enabled() {
		attemptRecorder = adapters.NewDynamoAttemptRecorder(zeroLogger, dynamodb.New(sess), cfg.Dynamo)
	}

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Auth.Enabled() {
		authHandler, err := middleware.NewAuthHandler(cfg.Auth.JwksURL, zeroLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth handler!")
		}
		router.Use(authHandler.AuthMiddleware())
	} else {
		zeroLogger.Warn("JWKS_URL is not set, API routes are unauthenticated")
	}

	ingestor := services.NewCustomerIngestor(zeroLogger, map[inbound.SpreadsheetFormat]outbound.SpreadsheetDecoderPort{
		inbound.CSVFormat:  adapters.NewCSVDecoder(),
		inbound.TSVFormat:  adapters.NewTSVDecoder(),
		inbound.XLSXFormat: adapters.NewXLSXDecoder(zeroLogger),
	}, cfg.Campaign.MaxUploadBytes)
	scriptGenerator := services.NewScriptGenerator(zeroLogger, languageModel, cfg.Gpt.SystemPrompt)
	voiceSynthesizer := services.NewVoiceSynthesizer(zeroLogger, speechSynthesis, services.VoiceCatalog, cfg.ElevenLabs.DefaultVoice)
	tracker := services.NewCallStatusTracker(zeroLogger, attemptRecorder, cfg.Campaign.SubscriberBacklog)

	var telephony outbound.TelephonyPort
	if cfg.Twilio.Mode == config.SimulatedTelephonyMode {
		telephony, err = mocktelephony.Init(router, workerPool, tracker, cfg.Twilio.SimulationFile, zeroLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start telephony simulator")
		}
	} else {
		telephony = adapters.NewTwilioTelephony(cfg.Twilio, zeroLogger)
	}

	dispatcher := services.NewCallDispatcher(zeroLogger, telephony, tracker, cfg.Twilio.StatusCallbackURL())
	registry := services.NewCampaignRegistry()
	orchestrator := services.NewCampaignOrchestrator(zeroLogger, pipelinePool, registry, scriptGenerator, voiceSynthesizer,
		audioStore, dispatcher, cfg.Campaign.ReuseArtifacts)

	var webhookMiddleware []gin.HandlerFunc
	if cfg.Twilio.ValidateSignature {
		webhookMiddleware = append(webhookMiddleware,
			middleware.TwilioSignatureMiddleware(cfg.Twilio.AuthToken, cfg.Twilio.PublicBaseURL, zeroLogger))
	}

	router.MaxMultipartMemory = cfg.Campaign.MaxUploadBytes

	controllers.NewCustomersController(zeroLogger, ingestor).RegisterRoutes(router)
	controllers.NewScriptsController(zeroLogger, scriptGenerator).RegisterRoutes(router)
	controllers.NewVoicesController(zeroLogger, voiceSynthesizer, audioStore).RegisterRoutes(router)
	controllers.NewCallsController(zeroLogger, dispatcher, tracker).RegisterRoutes(router, webhookMiddleware...)
	controllers.NewCampaignsController(runCtx, zeroLogger, streamPool, ingestor, orchestrator, registry, tracker,
		cfg.Campaign.SubscriberBacklog).RegisterRoutes(router, middleware.SSEMiddleware(cfg.Campaign.SSEHeartbeat))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zeroLogger.Error(err, "Failed to shut down server")
		}
	}()

	zeroLogger.InfoWithFields("Server starting", map[string]interface{}{
		"port":      cfg.Port,
		"telephony": cfg.Twilio.Mode,
	})

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
