package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studyflow/models"
)

const validQuizJSON = `{
  "questions": [
    {"question": "q1", "options": ["a", "b", "c", "d"], "correct": 0, "explanation": "e1"},
    {"question": "q2", "options": ["a", "b", "c", "d"], "correct": 1, "explanation": "e2"},
    {"question": "q3", "options": ["a", "b", "c", "d"], "correct": 2, "explanation": "e3"},
    {"question": "q4", "options": ["a", "b", "c", "d"], "correct": 3, "explanation": "e4"},
    {"question": "q5", "options": ["a", "b", "c", "d"], "correct": 0, "explanation": "e5"}
  ]
}`

func TestParseQuizContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "clean JSON",
			content: validQuizJSON,
		},
		{
			name:    "JSON wrapped in prose",
			content: "Here is your quiz:\n```json\n" + validQuizJSON + "\n```\nGood luck!",
		},
		{
			name:    "no JSON object",
			content: "Sorry, I cannot generate a quiz right now.",
			wantErr: "failed to parse quiz data from AI response",
		},
		{
			name:    "malformed JSON",
			content: `{"questions": [}`,
			wantErr: "failed to parse quiz data from AI response",
		},
		{
			name: "wrong question count",
			content: `{"questions": [
				{"question": "q1", "options": ["a", "b", "c", "d"], "correct": 0}
			]}`,
			wantErr: "invalid quiz structure",
		},
		{
			name:    "three options",
			content: strings.Replace(validQuizJSON, `["a", "b", "c", "d"], "correct": 1`, `["a", "b", "c"], "correct": 1`, 1),
			wantErr: "invalid quiz structure",
		},
		{
			name:    "correct index out of range",
			content: strings.Replace(validQuizJSON, `"correct": 3`, `"correct": 4`, 1),
			wantErr: "invalid quiz structure",
		},
		{
			name:    "empty question text",
			content: strings.Replace(validQuizJSON, `"question": "q2"`, `"question": ""`, 1),
			wantErr: "invalid quiz structure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz, err := ParseQuizContent(tt.content)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuizContent: %v", err)
			}
			if len(quiz.Questions) != 5 {
				t.Errorf("questions = %d, want 5", len(quiz.Questions))
			}
			if quiz.Questions[1].Correct != 1 || quiz.Questions[1].Explanation != "e2" {
				t.Errorf("question 2 not preserved: %+v", quiz.Questions[1])
			}
		})
	}
}

func TestGenerateQuiz(t *testing.T) {
	gen := &fakeGenerator{reply: "Sure!\n" + validQuizJSON}
	qs := NewQuizService(gen)

	quiz, err := qs.GenerateQuiz(context.Background(), "Science", "Photosynthesis", 7)
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if len(quiz.Questions) != 5 {
		t.Errorf("questions = %d, want 5", len(quiz.Questions))
	}

	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Class 7 student about Science") {
		t.Errorf("unexpected prompt: %+v", gen.prompts)
	}
}

func TestGenerateQuizPropagatesGatewayError(t *testing.T) {
	wantErr := errors.New("rate limited")
	qs := NewQuizService(&fakeGenerator{err: wantErr})

	if _, err := qs.GenerateQuiz(context.Background(), "Science", "Photosynthesis", 7); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestScoreAnswers(t *testing.T) {
	questions := []models.Question{
		{Correct: 0}, {Correct: 1}, {Correct: 2}, {Correct: 3}, {Correct: 0},
	}

	tests := []struct {
		name    string
		answers map[int]int
		want    int
	}{
		{name: "all correct", answers: map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 0}, want: 5},
		{name: "one wrong", answers: map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 1}, want: 4},
		{name: "skipped questions score zero", answers: map[int]int{0: 0, 2: 2}, want: 2},
		{name: "no answers", answers: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreAnswers(questions, tt.answers); got != tt.want {
				t.Errorf("ScoreAnswers() = %d, want %d", got, tt.want)
			}
		})
	}
}
