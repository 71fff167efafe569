package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"studyflow/models"
	"studyflow/services/llm"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

const (
	// Manual completion and timer-expiry completion award different amounts.
	manualCompletionReward = 10
	timedCompletionReward  = 20
	checkInCoinReward      = 5

	defaultPlannedTime = 30
	quizQuestionCount  = 5

	generalMemoryID = "general"

	// Matches JavaScript's Date.toDateString(), the format the StudyFlow web
	// client wrote into stored snapshots.
	memoryDateLayout = "Mon Jan 02 2006"

	aiFailureSurrogate = "AI failed to respond."

	// Sending this literal message starts the study countdown.
	sessionStartToken = "YES"
)

const (
	CheckInYes  = "yes"
	CheckInSome = "some"
	CheckInNo   = "no"
)

var (
	ErrMemoryFull      = errors.New("study memory is full")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrEventNotFound   = errors.New("event not found")
)

// SessionService implements the session and gamification rules over the user
// record: subject lifecycle, streaks and coins, chat memory and the tutor
// conversation flow.
type SessionService struct {
	state     *StateService
	generator llm.Generator
	timer     *StudyTimer
	now       func() time.Time

	seqMu    sync.Mutex
	replySeq map[string]uint64
}

func NewSessionService(state *StateService, generator llm.Generator) *SessionService {
	s := &SessionService{
		state:     state,
		generator: generator,
		now:       time.Now,
		replySeq:  make(map[string]uint64),
	}
	s.timer = NewStudyTimer(s.completeTimedSubject)
	return s
}

func (s *SessionService) today() string {
	return s.now().Format(memoryDateLayout)
}

func (s *SessionService) yesterday() string {
	return s.now().AddDate(0, 0, -1).Format(memoryDateLayout)
}

// ActiveSubject selects the first subject in list order with a non-empty
// topic that has not been completed.
func ActiveSubject(u *models.UserData) *models.Subject {
	sub, ok := lo.Find(u.Subjects, func(s models.Subject) bool {
		return s.CurrentTopic != "" && !s.IsCompleted
	})
	if !ok {
		return nil
	}
	return &sub
}

// memoryKey derives the chat memory slot for the active subject, using the
// current date at call time. Without an active subject all chat lands in the
// shared "general" slot.
func (s *SessionService) memoryKey(active *models.Subject) string {
	if active == nil {
		return generalMemoryID
	}
	return fmt.Sprintf("%s-%s-%s", active.Name, active.CurrentTopic, s.today())
}

// grantDailyStreak increments the streak at most once per calendar day. The
// gate is shared by every streak-granting action.
func (s *SessionService) grantDailyStreak(u *models.UserData) bool {
	today := s.today()
	if u.LastStreakDate != nil && *u.LastStreakDate == today {
		return false
	}
	u.Streak++
	u.LastStreakDate = &today
	return true
}

func (s *SessionService) bumpProductivity(u *models.UserData) {
	today := s.today()
	for i := range u.ProductivityLog {
		if u.ProductivityLog[i].Date == today {
			u.ProductivityLog[i].CompletedCount++
			return
		}
	}
	u.ProductivityLog = append(u.ProductivityLog, models.ProductivityEntry{Date: today, CompletedCount: 1})
}

// OpenSession runs the once-per-app-open reset: a streak whose last recorded
// day is neither today nor yesterday is broken.
func (s *SessionService) OpenSession() (*models.UserData, error) {
	return s.state.Apply(func(u *models.UserData) error {
		if u.LastStreakDate == nil {
			return nil
		}
		last := *u.LastStreakDate
		if last == s.today() || last == s.yesterday() {
			return nil
		}
		if u.Streak > 0 {
			log.Printf("[INFO] Streak of %d broken, last study day was %s", u.Streak, last)
		}
		u.Streak = 0
		return nil
	})
}

func (s *SessionService) AddSubject(name string) (models.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Subject{}, fmt.Errorf("subject name is required")
	}

	subject := models.Subject{
		ID:          uuid.NewString(),
		Name:        name,
		PlannedTime: defaultPlannedTime,
	}

	_, err := s.state.Apply(func(u *models.UserData) error {
		u.Subjects = append(u.Subjects, subject)
		return nil
	})
	if err != nil {
		return models.Subject{}, err
	}

	log.Printf("[INFO] Added subject %s (%s)", subject.Name, subject.ID)
	return subject, nil
}

func (s *SessionService) UpdateSubject(id string, patch models.SubjectPatch) (*models.UserData, error) {
	if patch.PlannedTime != nil && *patch.PlannedTime < 0 {
		return nil, fmt.Errorf("planned time cannot be negative")
	}

	return s.state.Apply(func(u *models.UserData) error {
		_, idx, ok := lo.FindIndexOf(u.Subjects, func(sub models.Subject) bool { return sub.ID == id })
		if !ok {
			return ErrSubjectNotFound
		}
		if patch.CurrentTopic != nil {
			u.Subjects[idx].CurrentTopic = *patch.CurrentTopic
		}
		if patch.PlannedTime != nil {
			u.Subjects[idx].PlannedTime = *patch.PlannedTime
		}
		return nil
	})
}

func (s *SessionService) DeleteSubject(id string) (*models.UserData, error) {
	return s.state.Apply(func(u *models.UserData) error {
		filtered := lo.Filter(u.Subjects, func(sub models.Subject, _ int) bool { return sub.ID != id })
		if len(filtered) == len(u.Subjects) {
			return ErrSubjectNotFound
		}
		u.Subjects = filtered
		return nil
	})
}

// CompleteSubject is the manual completion path: +10 coins and a day-gated
// streak increment. Completing an already-completed subject changes nothing.
func (s *SessionService) CompleteSubject(id string) (*models.UserData, error) {
	return s.state.Apply(func(u *models.UserData) error {
		_, idx, ok := lo.FindIndexOf(u.Subjects, func(sub models.Subject) bool { return sub.ID == id })
		if !ok {
			return ErrSubjectNotFound
		}
		if u.Subjects[idx].IsCompleted {
			return nil
		}
		u.Subjects[idx].IsCompleted = true
		u.Coins += manualCompletionReward
		s.grantDailyStreak(u)
		s.bumpProductivity(u)
		log.Printf("[INFO] Subject %s completed manually", id)
		return nil
	})
}

// completeTimedSubject is the timer-expiry completion path: +20 coins, no
// streak. Runs as the countdown callback.
func (s *SessionService) completeTimedSubject(subjectID string) {
	_, err := s.state.Apply(func(u *models.UserData) error {
		_, idx, ok := lo.FindIndexOf(u.Subjects, func(sub models.Subject) bool { return sub.ID == subjectID })
		if !ok {
			// Subject was deleted while its session ran.
			return nil
		}
		if u.Subjects[idx].IsCompleted {
			return nil
		}
		u.Subjects[idx].IsCompleted = true
		u.Coins += timedCompletionReward
		s.bumpProductivity(u)
		log.Printf("[INFO] Subject %s completed by timer expiry", subjectID)
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] Failed to record timed completion for subject %s: %v", subjectID, err)
	}
}

// CheckIn records the daily reflection. "yes" and "some" award +5 coins and a
// day-gated streak increment; "no" awards nothing.
func (s *SessionService) CheckIn(answer string) (*models.UserData, error) {
	switch answer {
	case CheckInYes, CheckInSome:
	case CheckInNo:
		return s.state.Snapshot(), nil
	default:
		return nil, fmt.Errorf("invalid check-in answer: %q", answer)
	}

	return s.state.Apply(func(u *models.UserData) error {
		u.Coins += checkInCoinReward
		s.grantDailyStreak(u)
		return nil
	})
}

// ScoreAnswers counts exact index matches between submitted answers and the
// questions' correct indices.
func ScoreAnswers(questions []models.Question, answers map[int]int) int {
	score := 0
	for i, q := range questions {
		if a, ok := answers[i]; ok && a == q.Correct {
			score++
		}
	}
	return score
}

// QuizReward maps a score over 5 questions to a coin reward.
func QuizReward(score int) int {
	switch {
	case score == quizQuestionCount:
		return 5
	case score >= 3:
		return score
	default:
		return 2
	}
}

// SubmitQuiz scores a completed quiz and grants the coin reward once.
func (s *SessionService) SubmitQuiz(questions []models.Question, answers map[int]int) (score, reward int, err error) {
	if len(questions) != quizQuestionCount {
		return 0, 0, fmt.Errorf("quiz must contain exactly %d questions", quizQuestionCount)
	}

	score = ScoreAnswers(questions, answers)
	reward = QuizReward(score)

	_, err = s.state.Apply(func(u *models.UserData) error {
		u.Coins += reward
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	log.Printf("[INFO] Quiz scored %d/%d, awarded %d coins", score, quizQuestionCount, reward)
	return score, reward, nil
}

// SendMessage runs the tutor conversation flow: append the student turn to
// the keyed memory slot, persist, ask the AI gateway for a reply and persist
// that too. A send at memory capacity is rejected without mutating anything.
func (s *SessionService) SendMessage(ctx context.Context, content string) (string, models.ChatMemory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.ChatMemory{}, fmt.Errorf("message content is required")
	}

	var (
		key    string
		mem    models.ChatMemory
		active *models.Subject
	)

	_, err := s.state.Apply(func(u *models.UserData) error {
		if len(u.ChatMemory) >= u.MaxMemorySlots {
			return ErrMemoryFull
		}

		active = ActiveSubject(u)
		key = s.memoryKey(active)

		current, ok := lo.Find(u.ChatMemory, func(m models.ChatMemory) bool { return m.ID == key })
		if !ok {
			current = models.ChatMemory{
				ID:       key,
				Subject:  "General",
				Topic:    "Study",
				Date:     s.today(),
				Messages: []models.Message{},
			}
			if active != nil {
				current.Subject = active.Name
				current.Topic = active.CurrentTopic
			}
		}

		current.Messages = append(current.Messages, models.Message{Role: models.RoleUser, Content: content})
		u.ChatMemory = append(
			lo.Filter(u.ChatMemory, func(m models.ChatMemory, _ int) bool { return m.ID != key }),
			current,
		)
		mem = current
		return nil
	})
	if err != nil {
		return "", models.ChatMemory{}, err
	}

	seq := s.nextReplySeq(key)

	if content == sessionStartToken && active != nil {
		s.timer.Start(active.ID, active.PlannedTime)
	}

	systemPrompt := DefaultChatSystemPrompt
	if active != nil {
		systemPrompt = TutorSystemPrompt(active.Name, active.CurrentTopic)
	}

	reply, genErr := s.generator.Generate(ctx, BuildConversationPrompt(mem.Messages, systemPrompt))
	if genErr != nil {
		log.Printf("[ERROR] Tutor reply generation failed: %v", genErr)
		reply = genErr.Error()
		if strings.TrimSpace(reply) == "" {
			reply = aiFailureSurrogate
		}
	}

	finalMem := mem
	_, err = s.state.Apply(func(u *models.UserData) error {
		if s.replySeqValue(key) != seq {
			// A newer student turn superseded this reply.
			log.Printf("[INFO] Dropping stale tutor reply for session %s", key)
			return nil
		}
		entry, _, ok := lo.FindIndexOf(u.ChatMemory, func(m models.ChatMemory) bool { return m.ID == key })
		if !ok {
			// Memory was cleared while the reply was in flight.
			return nil
		}
		entry.Messages = append(entry.Messages, models.Message{Role: models.RoleAssistant, Content: reply})
		u.ChatMemory = append(
			lo.Filter(u.ChatMemory, func(m models.ChatMemory, _ int) bool { return m.ID != key }),
			entry,
		)
		finalMem = entry
		return nil
	})
	if err != nil {
		return reply, mem, err
	}

	return reply, finalMem, nil
}

func (s *SessionService) nextReplySeq(key string) uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.replySeq[key]++
	return s.replySeq[key]
}

func (s *SessionService) replySeqValue(key string) uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	return s.replySeq[key]
}

// ClearMemory deletes every stored conversation.
func (s *SessionService) ClearMemory() (*models.UserData, error) {
	return s.state.Apply(func(u *models.UserData) error {
		u.ChatMemory = []models.ChatMemory{}
		return nil
	})
}

// SearchMemory finds stored conversations matching any of the space-separated
// keywords in query, tolerating small typos.
func (s *SessionService) SearchMemory(query string) []models.ChatMemory {
	terms := strings.Fields(strings.ToLower(query))
	u := s.state.Snapshot()

	if len(terms) == 0 {
		return u.ChatMemory
	}

	matches := []models.ChatMemory{}
	for _, mem := range u.ChatMemory {
		if memoryMatchesSearch(mem, terms) {
			matches = append(matches, mem)
		}
	}

	log.Printf("[INFO] Memory search for %q matched %d of %d sessions", query, len(matches), len(u.ChatMemory))
	return matches
}

func memoryMatchesSearch(mem models.ChatMemory, terms []string) bool {
	var b strings.Builder
	b.WriteString(mem.Subject)
	b.WriteString(" ")
	b.WriteString(mem.Topic)
	for _, msg := range mem.Messages {
		b.WriteString(" ")
		b.WriteString(msg.Content)
	}
	content := b.String()

	words := strings.Fields(strings.ToLower(content))
	cleanWords := make([]string, 0, len(words))
	for _, word := range words {
		cleanWord := strings.Trim(word, ".,!?;:()[]{}\"'")
		if len(cleanWord) > 0 {
			cleanWords = append(cleanWords, cleanWord)
		}
	}

	for _, term := range terms {
		if matches := fuzzy.Find(term, cleanWords); len(matches) > 0 {
			return true
		}

		// Tolerate small typos against individual words
		if len(term) > 3 {
			for _, word := range cleanWords {
				if fuzzy.LevenshteinDistance(term, word) <= 1 {
					return true
				}
			}
		}

		if len(term) > 2 && fuzzy.MatchFold(term, content) {
			return true
		}
	}

	return false
}

// AddEvent records a calendar entry.
func (s *SessionService) AddEvent(date, title, eventType string) (models.Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Event{}, fmt.Errorf("event title is required")
	}
	if strings.TrimSpace(date) == "" {
		return models.Event{}, fmt.Errorf("event date is required")
	}
	if eventType == "" {
		eventType = models.EventTypeEvent
	}
	if eventType != models.EventTypeDeadline && eventType != models.EventTypeEvent {
		return models.Event{}, fmt.Errorf("invalid event type: %q", eventType)
	}

	event := models.Event{
		ID:    uuid.NewString(),
		Date:  date,
		Title: title,
		Type:  eventType,
	}

	_, err := s.state.Apply(func(u *models.UserData) error {
		u.Events = append(u.Events, event)
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}

	return event, nil
}

func (s *SessionService) DeleteEvent(id string) (*models.UserData, error) {
	return s.state.Apply(func(u *models.UserData) error {
		filtered := lo.Filter(u.Events, func(e models.Event, _ int) bool { return e.ID != id })
		if len(filtered) == len(u.Events) {
			return ErrEventNotFound
		}
		u.Events = filtered
		return nil
	})
}

// TimerStatus reports the study countdown.
func (s *SessionService) TimerStatus() (remaining int, running bool, subjectID string) {
	return s.timer.Status()
}

// StopTimer cancels a running countdown without completing the subject.
func (s *SessionService) StopTimer() {
	s.timer.Stop()
}
