package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"algoarena/internal/api"
	"algoarena/internal/app/broadcast"
	"algoarena/internal/app/judge"
	"algoarena/internal/app/service"
	"algoarena/internal/common/security"
	"algoarena/internal/domain/repository"
	"algoarena/internal/platform/config"
	"algoarena/internal/platform/database"
	redisplatform "algoarena/internal/platform/redis"
	"algoarena/internal/platform/sandbox"
)

func main() {
	config.Load()
	fmt.Println("Configuration loaded.")

	security.InitJWT()
	fmt.Println("JWT initialized.")

	database.Connect()
	defer database.Close()

	redisplatform.Connect()
	defer redisplatform.Close()

	// Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	contestRepo := repository.NewPgContestRepository(database.DB)

	// Judge pipeline
	sandboxClient := sandbox.NewClient(
		config.AppConfig.SandboxURL,
		time.Duration(config.AppConfig.SandboxTimeoutSec)*time.Second,
	)
	executor := judge.NewExecutor(sandboxClient, time.Duration(config.AppConfig.SandboxPacingMs)*time.Millisecond)
	evaluator := judge.NewEvaluator(executor, nil)

	// Broadcast pipeline
	publisher := broadcast.NewRedisPublisher(redisplatform.RDB, config.AppConfig.LeaderboardChannel)
	coordinator := broadcast.NewCoordinator(contestRepo, publisher)
	hub := broadcast.NewHub(redisplatform.RDB, config.AppConfig.LeaderboardChannel)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)
	fmt.Println("Broadcast hub started.")

	// Services
	authService := service.NewAuthService(userRepo)
	problemService := service.NewProblemService(problemRepo, executor, database.DB)
	contestService := service.NewContestService(contestRepo, problemRepo, database.DB)
	scoringService := service.NewScoringService(contestRepo, database.DB)
	submissionService := service.NewSubmissionService(
		submissionRepo, problemRepo, userRepo, evaluator, scoringService, coordinator, database.DB,
	)

	router := api.NewRouter(authService, problemService, submissionService, contestService, hub)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 130 * time.Second, // judging holds the response open
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")
	hubCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and broadcast hub stopped gracefully.")
}
