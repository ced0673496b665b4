package services

// Event types carried over the realtime channel. Everything sent here
// is also derivable from the stored session snapshot, so a client that
// misses an event can resynchronize with request_game_state instead of
// replaying a log.
const (
	// Server -> Client
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventQuestionStarted = "question_started"
	EventAnswerReceived  = "answer_received" // delivered to the host only
	EventTimerTick       = "timer_tick"
	EventGameFinished    = "game_finished"
	EventGameStateSync   = "game_state_sync"
	EventError           = "error"
	EventPong            = "pong"

	// Client -> Server
	EventPing             = "ping"
	EventJoinGame         = "join_game"
	EventLeaveGame        = "leave_game"
	EventPlayerReady      = "player_ready"
	EventRequestGameState = "request_game_state"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type PlayerJoinedPayload struct {
	Player      GamePlayer `json:"player"`
	PlayerCount int        `json:"player_count"`
}

type QuestionStartedPayload struct {
	QuestionIndex  int           `json:"question_index"`
	Question       *GameQuestion `json:"question"`
	TotalQuestions int           `json:"total_questions"`
	Deadline       int64         `json:"deadline"` // unix ms
	ServerTime     int64         `json:"server_time"`
}

// AnswerReceivedPayload deliberately omits correctness so a host screen
// shared with the room cannot leak the answer mid-question.
type AnswerReceivedPayload struct {
	PlayerID      uint   `json:"player_id"`
	PlayerName    string `json:"player_name"`
	QuestionIndex int    `json:"question_index"`
	AnswerCount   int    `json:"answer_count"`
	PlayerCount   int    `json:"player_count"`
}

type TimerTickPayload struct {
	QuestionIndex int `json:"question_index"`
	TimeLeft      int `json:"time_left"` // seconds
}

type GameFinishedPayload struct {
	Leaderboard    []GamePlayer `json:"leaderboard"`
	TotalQuestions int          `json:"total_questions"`
}
