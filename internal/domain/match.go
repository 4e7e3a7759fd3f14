package domain

// MatchPlayer is one participant of a finished match, in finishing order.
type MatchPlayer struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Placement int    `json:"placement"`
	IsGuest   bool   `json:"isGuest"`
	EloChange int    `json:"eloChange"`
}

// MatchResult is created once when a match finishes and never mutated after
// the rating deltas are attached.
type MatchResult struct {
	GameType    string        `json:"gameType"`
	RoomCode    string        `json:"roomId"`
	Players     []MatchPlayer `json:"players"`
	RuleVariant string        `json:"ruleVariant"`
	DurationSec int           `json:"durationSec"`
	EloChanges  []EloChange   `json:"eloChanges"`
}
