package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single chat message as submitted to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is a persisted conversation turn. Only user and assistant turns are
// stored; system messages injected for one backend call are never persisted.
type Turn struct {
	ID      int64  `json:"id" db:"id"`
	Role    string `json:"role" db:"role"`
	Content string `json:"content" db:"content"`
	Ctime   int64  `json:"ctime" db:"ctime"`
}
