package protocol

// WELCOME (server -> client), sent once per connection.
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	LatestPass      uint64 `json:"latest_pass,omitempty"`
	Busy            bool   `json:"busy,omitempty"`
}

// REGENERATE (client -> server). A nil Seed asks the server to pick one.
type RegenerateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Seed            *int64 `json:"seed,omitempty"`
}

// LEVEL (server -> client): a finished pass. Sent to the requester and to every subscriber.
type LevelMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	RequestID       string   `json:"request_id,omitempty"`
	Level           LevelDoc `json:"level"`
}

// ERROR (server -> client).
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

// LevelDoc is the renderer-facing JSON form of a level. Grids are rows of marker digits
// (0 empty, 1 grass, 2 ground).
type LevelDoc struct {
	Pass      uint64  `json:"pass"`
	Seed      int64   `json:"seed"`
	Size      int     `json:"size"`
	Scale     int     `json:"scale"`
	Side      int     `json:"side"`
	Digest    string  `json:"digest"`
	ElapsedMs float64 `json:"elapsed_ms"`

	Composite []string `json:"composite"`
	Ground    []string `json:"ground"`
	Grass     []string `json:"grass"`

	Counts     map[string]int `json:"counts"`
	Placements []PlacementDoc `json:"placements"`
}

type PlacementDoc struct {
	Category string     `json:"category"`
	Cell     [2]int     `json:"cell"`
	Anchor   [2]float64 `json:"anchor"`
	Variant  int        `json:"variant"`
}

func NewError(requestID, code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, RequestID: requestID, Code: code, Message: message}
}
