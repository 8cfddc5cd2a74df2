package main

import (
	"context"
	"log"
	"time"

	"exam-service/configs"
	"exam-service/internal/db"
	"exam-service/internal/event"
	"exam-service/internal/generation"
	"exam-service/internal/grading"
	"exam-service/internal/handlers"
	"exam-service/internal/repository"
	"exam-service/internal/service"
	"exam-service/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configs.LoadConfig()
	cfg := configs.AppConfig

	if err := db.InitMongo(cfg.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	database := db.Client.Database(cfg.MongoDatabase)

	// RabbitMQ event publisher
	var publisher *event.Publisher
	if cfg.RabbitMQURI != "" && cfg.RabbitMQExchange != "" {
		var err error
		publisher, err = event.NewPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, lifecycle events will not be published")
	}

	// Repositories
	questionRepo := repository.NewQuestionRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	answerRepo := repository.NewAnswerRepository(database)
	resultRepo := repository.NewResultRepository(database)
	cacheRepo := repository.NewCacheRepository(database)
	userRepo := repository.NewUserRepository(database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := cacheRepo.EnsureTTLIndex(ctx); err != nil {
		log.Printf("Failed to ensure cache TTL index: %v", err)
	}
	cancel()

	// LLM client serves both grading and question generation
	llm := grading.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	grader := grading.NewGrader(llm)
	generator := generation.NewGenerator(llm, questionRepo, cacheRepo, cfg.QuestionCacheTTL)

	// Services
	finalizer := service.NewFinalizer(sessionRepo, resultRepo, userRepo, eventPublisher(publisher))
	sessionService := service.NewSessionService(
		sessionRepo,
		questionRepo,
		answerRepo,
		grader,
		finalizer,
		nil,
		eventPublisher(publisher),
	)
	questionService := service.NewQuestionService(questionRepo)
	resultService := service.NewResultService(resultRepo)

	// Handlers
	sessionHandler := handlers.NewSessionHandler(sessionService)
	questionHandler := handlers.NewQuestionHandler(questionService, generator)
	resultHandler := handlers.NewResultHandler(resultService)

	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", sessionHandler.HealthCheck)

	// Protected routes require a valid bearer token.
	protectedExam := r.Group("/protected/exam", utils.AuthRequired())
	{
		protectedExam.POST("/initialize", sessionHandler.InitializeSession)
		protectedExam.GET("/:id/next", sessionHandler.NextQuestion)
		protectedExam.POST("/:id/answer", sessionHandler.SubmitAnswer)
		protectedExam.POST("/:id/finalize", sessionHandler.FinalizeSession)
		protectedExam.POST("/:id/proctor-event", sessionHandler.RecordProctorEvent)
		protectedExam.GET("/:id/answers", sessionHandler.GetSessionAnswers)
		protectedExam.GET("/:id/status", sessionHandler.GetSessionStatus)
		protectedExam.GET("/:id/validate", sessionHandler.ValidateSessionAccess)
	}

	protectedQuestion := r.Group("/protected/exam/question", utils.AuthRequired())
	{
		protectedQuestion.GET("/", questionHandler.ListQuestions)
		protectedQuestion.GET("/:id", questionHandler.GetQuestion)
		protectedQuestion.POST("/", questionHandler.CreateQuestion)
		protectedQuestion.POST("/bulk", questionHandler.BulkCreateQuestions)
		protectedQuestion.PUT("/:id", questionHandler.UpdateQuestion)
		protectedQuestion.DELETE("/:id", questionHandler.DeleteQuestion)
		protectedQuestion.POST("/generate", questionHandler.GenerateQuestions)
	}

	// Results are shareable by link, so reads stay public.
	publicExam := r.Group("/public/exam")
	{
		publicExam.GET("/results/:testId", resultHandler.GetResult)
		publicExam.GET("/session/:id/result", resultHandler.GetResultBySession)
		publicExam.GET("/user/:id/results", resultHandler.GetResultsByUser)
	}

	log.Printf("%s %s listening on :%s", cfg.ServiceName, cfg.ServiceVersion, cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// eventPublisher keeps a typed nil out of the service layer's interface
// field when RabbitMQ is not configured.
func eventPublisher(p *event.Publisher) service.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
