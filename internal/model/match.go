package model

// Match is one completed pairing within an event (matches.json row). User
// references are nullable: entrants without a resolvable identity propagate
// as null, which is legitimate data, not an error.
type Match struct {
	WinnerID    *int64  `json:"winner_id"`
	LoserID     *int64  `json:"loser_id"`
	WinnerScore float64 `json:"winner_score"`
	LoserScore  float64 `json:"loser_score"`
	RoundText   *string `json:"round_text"`
	Round       int     `json:"round"`
	Phase       *string `json:"phase"`
	Wave        *string `json:"wave"`
	DQ          bool    `json:"dq"`
	Cancel      bool    `json:"cancel"`
	State       *int    `json:"state"`
	Details     []Game  `json:"details"`
}

// Game is one game within a match.
type Game struct {
	GameID        int64       `json:"game_id"`
	OrderNum      *int        `json:"order_num"`
	WinnerID      *int64      `json:"winner_id"`
	Entrant1Score *int        `json:"entrant1_score"`
	Entrant2Score *int        `json:"entrant2_score"`
	Stage         *string     `json:"stage"`
	Selections    []Selection `json:"selections"`
}

// Selection is one character pick within a game.
type Selection struct {
	UserID        *int64 `json:"user_id"`
	SelectionID   int64  `json:"selection_id"`
	CharacterID   int64  `json:"character_id"`
	CharacterName string `json:"character_name"`
}
