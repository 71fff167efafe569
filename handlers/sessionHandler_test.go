package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"studyflow/models"
	"studyflow/services"

	"github.com/gorilla/mux"
)

func newSessionRouter(t *testing.T, gen *stubGenerator) (*mux.Router, *services.StateService) {
	t.Helper()
	state, session := newSessionServices(t, gen)
	router := mux.NewRouter()
	NewSessionHandler(state, session).RegisterRoutes(router)
	return router, state
}

func TestGetState(t *testing.T) {
	router, _ := newSessionRouter(t, &stubGenerator{})

	rec := doRequest(router, http.MethodGet, "/state", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var u models.UserData
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if u.Name != "Student" || u.MaxMemorySlots != 20 {
		t.Errorf("unexpected defaults: %+v", u)
	}
}

func TestPatchState(t *testing.T) {
	router, state := newSessionRouter(t, &stubGenerator{})

	rec := doRawRequest(router, http.MethodPatch, "/state", `{"name": "Asha", "class": 10}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	got := state.Snapshot()
	if got.Name != "Asha" || got.Class != 10 {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.MaxMemorySlots != 20 {
		t.Errorf("unpatched field changed: %+v", got)
	}
}

func TestPatchStateRejectsNonPositiveSlots(t *testing.T) {
	router, _ := newSessionRouter(t, &stubGenerator{})

	rec := doRawRequest(router, http.MethodPatch, "/state", `{"maxMemorySlots": 0}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got != "maxMemorySlots must be positive" {
		t.Errorf("error = %q", got)
	}
}

func TestSendMessageEndpoint(t *testing.T) {
	router, _ := newSessionRouter(t, &stubGenerator{reply: "Welcome back!"})

	rec := doRequest(router, http.MethodPost, "/session/message", SendMessageRequest{Content: "Hi"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var resp SendMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "Welcome back!" {
		t.Errorf("reply = %q", resp.Reply)
	}
	if resp.Memory.ID != "general" || len(resp.Memory.Messages) != 2 {
		t.Errorf("unexpected memory: %+v", resp.Memory)
	}
}

func TestSendMessageEndpointMemoryFull(t *testing.T) {
	router, _ := newSessionRouter(t, &stubGenerator{reply: "hi"})

	if rec := doRawRequest(router, http.MethodPatch, "/state", `{"maxMemorySlots": 1}`); rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d", rec.Code)
	}
	if rec := doRequest(router, http.MethodPost, "/session/message", SendMessageRequest{Content: "first"}); rec.Code != http.StatusOK {
		t.Fatalf("first send status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec := doRequest(router, http.MethodPost, "/session/message", SendMessageRequest{Content: "second"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if got := decodeError(t, rec); got != memoryFullWarning {
		t.Errorf("error = %q, want capacity warning", got)
	}
}

func TestSubjectEndpoints(t *testing.T) {
	router, state := newSessionRouter(t, &stubGenerator{})

	rec := doRequest(router, http.MethodPost, "/subjects", AddSubjectRequest{Name: "Physics"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	var subject models.Subject
	if err := json.Unmarshal(rec.Body.Bytes(), &subject); err != nil {
		t.Fatalf("decode subject: %v", err)
	}

	rec = doRawRequest(router, http.MethodPatch, "/subjects/"+subject.ID, `{"currentTopic": "Optics"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, http.MethodPost, "/subjects/"+subject.ID+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := state.Snapshot(); got.Coins != 10 || got.Streak != 1 {
		t.Errorf("coins/streak = %d/%d, want 10/1", got.Coins, got.Streak)
	}

	rec = doRequest(router, http.MethodPost, "/subjects/missing/complete", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("complete missing status = %d, want 404", rec.Code)
	}

	rec = doRequest(router, http.MethodDelete, "/subjects/"+subject.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(router, http.MethodDelete, "/subjects/"+subject.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", rec.Code)
	}
}

func TestCheckInEndpoint(t *testing.T) {
	router, state := newSessionRouter(t, &stubGenerator{})

	rec := doRequest(router, http.MethodPost, "/checkin", CheckInRequest{StudyToday: "yes"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if got := state.Snapshot(); got.Coins != 5 || got.Streak != 1 {
		t.Errorf("coins/streak = %d/%d, want 5/1", got.Coins, got.Streak)
	}

	rec = doRequest(router, http.MethodPost, "/checkin", CheckInRequest{StudyToday: "maybe"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid answer status = %d, want 400", rec.Code)
	}
}

func TestEventEndpoints(t *testing.T) {
	router, _ := newSessionRouter(t, &stubGenerator{})

	rec := doRequest(router, http.MethodPost, "/events", AddEventRequest{
		Date:  "Wed Mar 12 2025",
		Title: "Physics exam",
		Type:  "deadline",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	var event models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}

	rec = doRequest(router, http.MethodDelete, "/events/"+event.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(router, http.MethodDelete, "/events/"+event.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", rec.Code)
	}
}

func TestTimerStatusEndpoint(t *testing.T) {
	router, _ := newSessionRouter(t, &stubGenerator{})

	rec := doRequest(router, http.MethodGet, "/session/timer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp TimerStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Running || resp.Remaining != 0 {
		t.Errorf("idle timer reported %+v", resp)
	}

	rec = doRequest(router, http.MethodDelete, "/session/timer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d, want 200", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Running {
		t.Errorf("timer running after stop: %+v", resp)
	}
}

func TestSearchMemoryEndpoint(t *testing.T) {
	router, _ := newSessionRouter(t, &stubGenerator{reply: "Refraction bends light."})

	if rec := doRequest(router, http.MethodPost, "/session/message", SendMessageRequest{Content: "Explain refraction"}); rec.Code != http.StatusOK {
		t.Fatalf("send status = %d", rec.Code)
	}

	rec := doRequest(router, http.MethodGet, "/session/memory/search?q=refraction", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	var matches []models.ChatMemory
	if err := json.Unmarshal(rec.Body.Bytes(), &matches); err != nil {
		t.Fatalf("decode matches: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("matches = %d, want 1", len(matches))
	}

	rec = doRequest(router, http.MethodDelete, "/session/memory", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	var u models.UserData
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(u.ChatMemory) != 0 {
		t.Errorf("memory not cleared: %+v", u.ChatMemory)
	}
}
