package models

// Subject is one planned study subject. Completion is one-way: once a subject
// is marked completed it never transitions back.
type Subject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrentTopic string `json:"currentTopic"`
	PlannedTime  int    `json:"plannedTime"`
	IsCompleted  bool   `json:"isCompleted"`
}

// ChatMemory is one stored tutor conversation, keyed by subject, topic and
// the date the session was started.
type ChatMemory struct {
	ID       string    `json:"id"`
	Subject  string    `json:"subject"`
	Topic    string    `json:"topic"`
	Date     string    `json:"date"`
	Messages []Message `json:"messages"`
}

// Event is a calendar entry, either a deadline or a general event.
type Event struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

const (
	EventTypeDeadline = "deadline"
	EventTypeEvent    = "event"
)

// ProductivityEntry counts completed study sessions for one calendar day.
type ProductivityEntry struct {
	Date           string `json:"date"`
	CompletedCount int    `json:"completedCount"`
}

// UserData is the root state record. The whole record is persisted as a
// single JSON blob and replaced wholesale on every mutation.
type UserData struct {
	Name            string              `json:"name"`
	Class           int                 `json:"class"`
	Stream          string              `json:"stream,omitempty"`
	Streak          int                 `json:"streak"`
	LastStreakDate  *string             `json:"lastStreakDate"`
	Coins           int                 `json:"coins"`
	Subjects        []Subject           `json:"subjects"`
	ChatMemory      []ChatMemory        `json:"chatMemory"`
	MaxMemorySlots  int                 `json:"maxMemorySlots"`
	Events          []Event             `json:"events"`
	ProductivityLog []ProductivityEntry `json:"productivityLog"`
}

// DefaultUserData returns the record a brand-new user starts with.
func DefaultUserData() *UserData {
	return &UserData{
		Name:            "Student",
		Class:           9,
		Streak:          0,
		LastStreakDate:  nil,
		Coins:           0,
		Subjects:        []Subject{},
		ChatMemory:      []ChatMemory{},
		MaxMemorySlots:  20,
		Events:          []Event{},
		ProductivityLog: []ProductivityEntry{},
	}
}

// Clone returns a deep copy so reducers can mutate freely without aliasing
// the published snapshot.
func (u *UserData) Clone() *UserData {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastStreakDate != nil {
		v := *u.LastStreakDate
		c.LastStreakDate = &v
	}
	c.Subjects = cloneSlice(u.Subjects)
	c.Events = cloneSlice(u.Events)
	c.ProductivityLog = cloneSlice(u.ProductivityLog)
	if u.ChatMemory != nil {
		c.ChatMemory = make([]ChatMemory, len(u.ChatMemory))
		for i, m := range u.ChatMemory {
			m.Messages = cloneSlice(m.Messages)
			c.ChatMemory[i] = m
		}
	}
	return &c
}

// cloneSlice preserves nil vs empty so snapshots round-trip byte-for-byte.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// SubjectPatch updates a subject's editable fields.
type SubjectPatch struct {
	CurrentTopic *string `json:"currentTopic,omitempty"`
	PlannedTime  *int    `json:"plannedTime,omitempty"`
}

// UserDataPatch is a shallow partial update: every non-nil field fully
// replaces the corresponding top-level field of the record.
type UserDataPatch struct {
	Name           *string `json:"name,omitempty"`
	Class          *int    `json:"class,omitempty"`
	Stream         *string `json:"stream,omitempty"`
	MaxMemorySlots *int    `json:"maxMemorySlots,omitempty"`
}

// ApplyTo merges the patch onto the record.
func (p UserDataPatch) ApplyTo(u *UserData) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Class != nil {
		u.Class = *p.Class
	}
	if p.Stream != nil {
		u.Stream = *p.Stream
	}
	if p.MaxMemorySlots != nil {
		u.MaxMemorySlots = *p.MaxMemorySlots
	}
}
