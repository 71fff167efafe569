package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"studyflow/models"
	"studyflow/services"
	"studyflow/services/llm"

	"github.com/gorilla/mux"
)

type ChatRequest struct {
	Messages     []models.Message `json:"messages"`
	SystemPrompt string           `json:"systemPrompt"`
}

type ChatResponse struct {
	Text string `json:"text"`
}

// ChatHandler serves the stateless chat endpoint: prompt in, mentor reply out.
type ChatHandler struct {
	generator llm.Generator
}

func NewChatHandler(generator llm.Generator) *ChatHandler {
	return &ChatHandler{generator: generator}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chat", h.Chat).Methods("POST")
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received chat request")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode chat request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if len(req.Messages) == 0 {
		log.Printf("[ERROR] No messages provided in chat request")
		h.writeErrorResponse(w, http.StatusBadRequest, "At least one message is required")
		return
	}

	prompt := services.BuildConversationPrompt(req.Messages, req.SystemPrompt)

	text, err := h.generator.Generate(r.Context(), prompt)
	if err != nil {
		log.Printf("[ERROR] Chat generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[INFO] Chat request completed successfully")
	h.writeJSONResponse(w, http.StatusOK, ChatResponse{Text: text})
}

func (h *ChatHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ChatHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
