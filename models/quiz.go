package models

// Question is one generated multiple-choice question. Options always holds
// exactly 4 entries and Correct is the index of the right one.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}

// Quiz is the strict-JSON payload expected inside the generated text.
type Quiz struct {
	Questions []Question `json:"questions"`
}

type GenerateQuizRequest struct {
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
	Grade   int    `json:"grade"`
}
