package model

// AnswerUpload carries one recorded answer and its metadata to the backend.
type AnswerUpload struct {
	SessionID     string
	QuestionID    string
	QuestionText  string
	QuestionOrder int
	IsLast        bool
	Audio         []byte
	MimeType      string
}
