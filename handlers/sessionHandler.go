package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"studyflow/models"
	"studyflow/services"

	"github.com/gorilla/mux"
)

const memoryFullWarning = "Your study memory is full. Please delete older sessions to continue."

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	Reply  string            `json:"reply"`
	Memory models.ChatMemory `json:"memory"`
}

type AddSubjectRequest struct {
	Name string `json:"name"`
}

type CheckInRequest struct {
	StudyToday string `json:"studyToday"`
}

type AddEventRequest struct {
	Date  string `json:"date"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type TimerStatusResponse struct {
	Remaining int    `json:"remaining"`
	Running   bool   `json:"running"`
	SubjectID string `json:"subjectId,omitempty"`
}

// SessionHandler exposes the user record and the session/gamification rules.
type SessionHandler struct {
	state   *services.StateService
	session *services.SessionService
}

func NewSessionHandler(state *services.StateService, session *services.SessionService) *SessionHandler {
	return &SessionHandler{state: state, session: session}
}

func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/state", h.GetState).Methods("GET")
	router.HandleFunc("/state", h.PatchState).Methods("PATCH")

	router.HandleFunc("/session/open", h.OpenSession).Methods("POST")
	router.HandleFunc("/session/message", h.SendMessage).Methods("POST")
	router.HandleFunc("/session/memory", h.ClearMemory).Methods("DELETE")
	router.HandleFunc("/session/memory/search", h.SearchMemory).Methods("GET")
	router.HandleFunc("/session/timer", h.TimerStatus).Methods("GET")
	router.HandleFunc("/session/timer", h.StopTimer).Methods("DELETE")

	router.HandleFunc("/subjects", h.AddSubject).Methods("POST")
	router.HandleFunc("/subjects/{id}", h.UpdateSubject).Methods("PATCH")
	router.HandleFunc("/subjects/{id}", h.DeleteSubject).Methods("DELETE")
	router.HandleFunc("/subjects/{id}/complete", h.CompleteSubject).Methods("POST")

	router.HandleFunc("/checkin", h.CheckIn).Methods("POST")

	router.HandleFunc("/events", h.AddEvent).Methods("POST")
	router.HandleFunc("/events/{id}", h.DeleteEvent).Methods("DELETE")
}

func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, h.state.Snapshot())
}

func (h *SessionHandler) PatchState(w http.ResponseWriter, r *http.Request) {
	var patch models.UserDataPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Printf("[ERROR] Failed to decode state patch JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if patch.MaxMemorySlots != nil && *patch.MaxMemorySlots <= 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "maxMemorySlots must be positive")
		return
	}

	next, err := h.state.Merge(patch)
	if err != nil {
		log.Printf("[ERROR] Failed to apply state patch: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, next)
}

func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	next, err := h.session.OpenSession()
	if err != nil {
		log.Printf("[ERROR] Failed to open session: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, next)
}

func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received tutor message request")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode tutor message JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	reply, memory, err := h.session.SendMessage(r.Context(), req.Content)
	if err != nil {
		if errors.Is(err, services.ErrMemoryFull) {
			log.Printf("[INFO] Tutor message rejected, memory at capacity")
			h.writeErrorResponse(w, http.StatusConflict, memoryFullWarning)
			return
		}
		log.Printf("[ERROR] Tutor message failed: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, SendMessageResponse{Reply: reply, Memory: memory})
}

func (h *SessionHandler) ClearMemory(w http.ResponseWriter, r *http.Request) {
	next, err := h.session.ClearMemory()
	if err != nil {
		log.Printf("[ERROR] Failed to clear chat memory: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, next)
}

func (h *SessionHandler) SearchMemory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	matches := h.session.SearchMemory(query)
	h.writeJSONResponse(w, http.StatusOK, matches)
}

func (h *SessionHandler) TimerStatus(w http.ResponseWriter, r *http.Request) {
	remaining, running, subjectID := h.session.TimerStatus()
	h.writeJSONResponse(w, http.StatusOK, TimerStatusResponse{
		Remaining: remaining,
		Running:   running,
		SubjectID: subjectID,
	})
}

func (h *SessionHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	h.session.StopTimer()
	remaining, running, subjectID := h.session.TimerStatus()
	h.writeJSONResponse(w, http.StatusOK, TimerStatusResponse{
		Remaining: remaining,
		Running:   running,
		SubjectID: subjectID,
	})
}

func (h *SessionHandler) AddSubject(w http.ResponseWriter, r *http.Request) {
	var req AddSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode add subject JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	subject, err := h.session.AddSubject(req.Name)
	if err != nil {
		log.Printf("[ERROR] Failed to add subject: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, subject)
}

func (h *SessionHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch models.SubjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Printf("[ERROR] Failed to decode subject patch JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	next, err := h.session.UpdateSubject(id, patch)
	if err != nil {
		h.writeRuleError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, next)
}

func (h *SessionHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	next, err := h.session.DeleteSubject(id)
	if err != nil {
		h.writeRuleError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, next)
}

func (h *SessionHandler) CompleteSubject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	next, err := h.session.CompleteSubject(id)
	if err != nil {
		h.writeRuleError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, next)
}

func (h *SessionHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode check-in JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	next, err := h.session.CheckIn(req.StudyToday)
	if err != nil {
		log.Printf("[ERROR] Check-in failed: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, next)
}

func (h *SessionHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var req AddEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode add event JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	event, err := h.session.AddEvent(req.Date, req.Title, req.Type)
	if err != nil {
		log.Printf("[ERROR] Failed to add event: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, event)
}

func (h *SessionHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	next, err := h.session.DeleteEvent(id)
	if err != nil {
		h.writeRuleError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, next)
}

// writeRuleError maps rule errors onto HTTP statuses.
func (h *SessionHandler) writeRuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSubjectNotFound), errors.Is(err, services.ErrEventNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[ERROR] Session operation failed: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
	}
}

func (h *SessionHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *SessionHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
