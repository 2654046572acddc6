package ws

import "encoding/json"

// MessageType constants for the play WebSocket protocol.
const (
	// Client -> Server
	TypeStart        = "start"
	TypeSelectAnswer = "select_answer"
	TypeNextQuestion = "next_question"
	TypeFinish       = "finish"

	// Server -> Client
	TypeSessionReady    = "session_ready"
	TypeQuestion        = "question"
	TypeTick            = "tick"
	TypeAnswerAck       = "answer_ack"
	TypeTimeout         = "timeout"
	TypeCelebration     = "celebration"
	TypeSessionComplete = "session_complete"
	TypeError           = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// Client Messages (incoming)

type SelectAnswerPayload struct {
	QuestionID int `json:"question_id"`
	OptionID   int `json:"option_id"`
}

// Server Messages (outgoing)

type SessionReadyPayload struct {
	SessionID          string `json:"session_id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	QuestionCount      int    `json:"question_count"`
	PerQuestionSeconds int    `json:"per_question_seconds"`
	TopScore           *int   `json:"top_score,omitempty"`
}

type QuestionPayload struct {
	Index            int            `json:"index"`
	Total            int            `json:"total"`
	ID               int            `json:"id"`
	Description      string         `json:"description"`
	Options          []OptionChoice `json:"options"`
	RemainingSeconds int            `json:"remaining_seconds"`
	Score            int            `json:"score"`
	Streak           int            `json:"streak"`
}

type OptionChoice struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type TickPayload struct {
	QuestionIndex    int `json:"question_index"`
	RemainingSeconds int `json:"remaining_seconds"`
}

type AnswerAckPayload struct {
	QuestionID int    `json:"question_id"`
	OptionID   int    `json:"option_id"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
	Score      int    `json:"score"`
	Streak     int    `json:"streak"`
	Solution   string `json:"solution,omitempty"`
}

type TimeoutPayload struct {
	QuestionID int `json:"question_id"`
}

type CelebrationPayload struct {
	Active     bool `json:"active"`
	DurationMs int  `json:"duration_ms,omitempty"`
}

type SessionCompletePayload struct {
	Score            int     `json:"score"`
	CorrectCount     int     `json:"correct_count"`
	Answered         int     `json:"answered"`
	TotalQuestions   int     `json:"total_questions"`
	TimeTakenSeconds int     `json:"time_taken_seconds"`
	Accuracy         float64 `json:"accuracy"`
	TopScore         int     `json:"top_score"`
	NewBest          bool    `json:"new_best"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
