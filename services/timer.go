package services

import (
	"log"
	"sync"
	"time"
)

// StudyTimer is the countdown attached to an active study session. At most
// one countdown runs per process; starting while one is running is a no-op.
type StudyTimer struct {
	mu        sync.Mutex
	remaining int
	running   bool
	subjectID string
	stop      chan struct{}

	tick     time.Duration
	onExpire func(subjectID string)
}

func NewStudyTimer(onExpire func(subjectID string)) *StudyTimer {
	return &StudyTimer{
		tick:     time.Second,
		onExpire: onExpire,
	}
}

// Start begins a countdown of minutes for the given subject. Returns false
// when a countdown is already running or minutes is not positive.
func (t *StudyTimer) Start(subjectID string, minutes int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running || minutes <= 0 {
		return false
	}

	t.running = true
	t.subjectID = subjectID
	t.remaining = minutes * 60
	t.stop = make(chan struct{})

	log.Printf("[INFO] Study timer started for subject %s (%d minutes)", subjectID, minutes)
	go t.run(t.stop)
	return true
}

func (t *StudyTimer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.running {
				t.mu.Unlock()
				return
			}
			t.remaining--
			if t.remaining > 0 {
				t.mu.Unlock()
				continue
			}
			t.running = false
			t.remaining = 0
			subjectID := t.subjectID
			t.mu.Unlock()

			log.Printf("[INFO] Study timer expired for subject %s", subjectID)
			if t.onExpire != nil {
				t.onExpire(subjectID)
			}
			return
		}
	}
}

// Stop cancels a running countdown without completing the subject.
func (t *StudyTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.running = false
	t.remaining = 0
	close(t.stop)
}

// Status reports the current countdown.
func (t *StudyTimer) Status() (remaining int, running bool, subjectID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining, t.running, t.subjectID
}
