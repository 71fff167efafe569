package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"studyflow/models"
	"studyflow/services"

	"github.com/gorilla/mux"
)

type ScoreQuizRequest struct {
	Questions []models.Question `json:"questions"`
	Answers   map[int]int       `json:"answers"`
}

type ScoreQuizResponse struct {
	Score int `json:"score"`
	Coins int `json:"coins"`
}

type QuizHandler struct {
	quizService *services.QuizService
	session     *services.SessionService
}

func NewQuizHandler(quizService *services.QuizService, session *services.SessionService) *QuizHandler {
	return &QuizHandler{quizService: quizService, session: session}
}

func (h *QuizHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/quiz/generate", h.GenerateQuiz).Methods("POST")
	router.HandleFunc("/quiz/score", h.ScoreQuiz).Methods("POST")
}

func (h *QuizHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received quiz generation request")

	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode quiz request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Subject == "" || req.Topic == "" || req.Grade == 0 {
		log.Printf("[ERROR] Missing required fields in quiz request")
		h.writeErrorResponse(w, http.StatusBadRequest, "Subject, topic, and grade are required")
		return
	}

	quiz, err := h.quizService.GenerateQuiz(r.Context(), req.Subject, req.Topic, req.Grade)
	if err != nil {
		log.Printf("[ERROR] Quiz generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[INFO] Quiz generation completed successfully")
	h.writeJSONResponse(w, http.StatusOK, quiz)
}

func (h *QuizHandler) ScoreQuiz(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received quiz scoring request")

	var req ScoreQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode quiz scoring request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	score, coins, err := h.session.SubmitQuiz(req.Questions, req.Answers)
	if err != nil {
		log.Printf("[ERROR] Quiz scoring failed: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("[INFO] Quiz scoring completed successfully")
	h.writeJSONResponse(w, http.StatusOK, ScoreQuizResponse{Score: score, Coins: coins})
}

func (h *QuizHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *QuizHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
