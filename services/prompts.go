package services

import (
	"fmt"
	"strings"

	"studyflow/models"
)

const (
	DefaultChatSystemPrompt = `You are a friendly AI Study Mentor for students in Class 5-10.`

	tutorSystemPromptTemplate = `You are a discipline-focused StudyFlow AI tutor. The student is studying %s: %s. Keep responses concise and academically rigorous.`

	quizPromptTemplate = `Generate 5 multiple choice quiz questions for a Class %d student about %s - specifically on the topic: "%s".

IMPORTANT: Return ONLY valid JSON in this exact format with no additional text:
{
  "questions": [
    {
      "question": "Question text here",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct": 0,
      "explanation": "Brief explanation"
    }
  ]
}

Make the questions age-appropriate, educational, and engaging. Include a mix of difficulty levels. Each question must have exactly 4 options. The "correct" field should be 0, 1, 2, or 3 (index of correct answer).`
)

// BuildConversationPrompt renders a conversation as a single prompt: the
// system instruction, the turns labelled Student/Mentor, and a trailing
// "Mentor:" cue for the model to complete.
func BuildConversationPrompt(messages []models.Message, systemPrompt string) string {
	if systemPrompt == "" {
		systemPrompt = DefaultChatSystemPrompt
	}

	turns := make([]string, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, fmt.Sprintf("%s: %s", roleLabel(msg.Role), msg.Content))
	}

	return fmt.Sprintf("%s\n\nConversation:\n%s\n\nMentor:", systemPrompt, strings.Join(turns, "\n\n"))
}

func roleLabel(role string) string {
	if role == models.RoleUser {
		return "Student"
	}
	return "Mentor"
}

// TutorSystemPrompt parameterizes the chat system prompt with the subject the
// student is currently working on.
func TutorSystemPrompt(subjectName, topic string) string {
	return fmt.Sprintf(tutorSystemPromptTemplate, subjectName, topic)
}

// BuildQuizPrompt renders the fixed quiz-generation instruction.
func BuildQuizPrompt(subject, topic string, grade int) string {
	return fmt.Sprintf(quizPromptTemplate, grade, subject, topic)
}
