package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"studyflow/models"
	"studyflow/services/llm"
)

// QuizService generates multiple-choice quizzes through the AI gateway and
// validates the strict-JSON payload the model is instructed to return.
type QuizService struct {
	generator llm.Generator
}

func NewQuizService(generator llm.Generator) *QuizService {
	return &QuizService{generator: generator}
}

// GenerateQuiz asks the model for 5 MCQs on the given subject/topic/grade.
func (qs *QuizService) GenerateQuiz(ctx context.Context, subject, topic string, grade int) (*models.Quiz, error) {
	log.Printf("[INFO] Starting quiz generation for %s / %s (class %d)", subject, topic, grade)

	prompt := BuildQuizPrompt(subject, topic, grade)

	content, err := qs.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[ERROR] Quiz generation call failed: %v", err)
		return nil, err
	}

	quiz, err := ParseQuizContent(content)
	if err != nil {
		log.Printf("[ERROR] Generated quiz failed validation: %v", err)
		return nil, err
	}

	log.Printf("[INFO] Successfully generated quiz with %d questions", len(quiz.Questions))
	return quiz, nil
}

// ParseQuizContent extracts the JSON object embedded in the generated text
// and validates its shape: exactly 5 questions, 4 options each, correct index
// in range.
func ParseQuizContent(content string) (*models.Quiz, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("failed to parse quiz data from AI response")
	}

	quiz := &models.Quiz{}
	if err := json.Unmarshal([]byte(content[start:end+1]), quiz); err != nil {
		return nil, fmt.Errorf("failed to parse quiz data from AI response")
	}

	if len(quiz.Questions) != quizQuestionCount {
		return nil, fmt.Errorf("invalid quiz structure")
	}
	for _, q := range quiz.Questions {
		if q.Question == "" || len(q.Options) != 4 || q.Correct < 0 || q.Correct > 3 {
			return nil, fmt.Errorf("invalid quiz structure")
		}
	}

	return quiz, nil
}
