package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"studyflow/config"
	"studyflow/db"
	"studyflow/handlers"
	"studyflow/services"
	"studyflow/services/llm"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	generator := buildGenerator(cfg)

	snapshotRepo, err := db.NewPostgresSnapshotRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot database: %v", err)
	}
	defer snapshotRepo.Close()

	stateService := services.NewStateService(snapshotRepo)
	sessionService := services.NewSessionService(stateService, generator)
	quizService := services.NewQuizService(generator)

	chatHandler := handlers.NewChatHandler(generator)
	quizHandler := handlers.NewQuizHandler(quizService, sessionService)
	sessionHandler := handlers.NewSessionHandler(stateService, sessionService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	chatHandler.RegisterRoutes(router)
	quizHandler.RegisterRoutes(router)
	sessionHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func buildGenerator(cfg *config.Config) llm.Generator {
	switch cfg.AIProvider {
	case "claude":
		if cfg.AnthropicAPIKey == "" {
			log.Fatal("ANTHROPIC_API_KEY environment variable is required when AI_PROVIDER=claude")
		}
		return llm.NewClaudeClient(cfg.AnthropicAPIKey)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required")
		}
		client, err := llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		return client
	default:
		log.Fatalf("Unknown AI_PROVIDER %q (expected gemini or claude)", cfg.AIProvider)
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
