package startgg

// Response node types for the queries in queries.go. Nullable fields use
// pointers so the distinction between absent and zero survives into the
// persisted dataset.

// TournamentNode is one tournament from the TournamentsByGame listing,
// including its venue/place attributes.
type TournamentNode struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	StartAt      *int64   `json:"startAt"`
	EndAt        *int64   `json:"endAt"`
	CountryCode  *string  `json:"countryCode"`
	City         *string  `json:"city"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	VenueName    *string  `json:"venueName"`
	Timezone     *string  `json:"timezone"`
	PostalCode   *string  `json:"postalCode"`
	VenueAddress *string  `json:"venueAddress"`
	MapsPlaceID  *string  `json:"mapsPlaceId"`
	URL          *string  `json:"url"`
}

// TournamentEventNode is one event listed under a tournament.
type TournamentEventNode struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	StartAt  *int64 `json:"startAt"`
	IsOnline *bool  `json:"isOnline"`
}

// EventDetail is the by-id event lookup used during backfill.
type EventDetail struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	StartAt    *int64          `json:"startAt"`
	IsOnline   *bool           `json:"isOnline"`
	Tournament *TournamentNode `json:"tournament"`
}

// StandingNode is one entrant's final placement.
type StandingNode struct {
	Placement int          `json:"placement"`
	Entrant   *EntrantNode `json:"entrant"`
}

// SeedNode is one entrant's initial bracket seed.
type SeedNode struct {
	ID      int64        `json:"id"`
	SeedNum int          `json:"seedNum"`
	Entrant *EntrantNode `json:"entrant"`
}

// EntrantNode is a per-event participant slot.
type EntrantNode struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Participants []ParticipantNode `json:"participants"`
}

// ParticipantNode links an entrant to its global user and player identity.
type ParticipantNode struct {
	User   *UserNode   `json:"user"`
	Player *PlayerNode `json:"player"`
}

// UserNode is a global user identity.
type UserNode struct {
	ID             int64               `json:"id"`
	GenderPronoun  *string             `json:"genderPronoun"`
	Discriminator  *string             `json:"discriminator"`
	Authorizations []AuthorizationNode `json:"authorizations"`
}

// AuthorizationNode is a linked external account.
type AuthorizationNode struct {
	Type             string  `json:"type"`
	ExternalID       *string `json:"externalId"`
	ExternalUsername *string `json:"externalUsername"`
}

// PlayerNode is the competitive identity attached to a user.
type PlayerNode struct {
	ID       int64   `json:"id"`
	GamerTag string  `json:"gamerTag"`
	Prefix   *string `json:"prefix"`
}

// SetNode is one completed pairing (a "set") within an event.
type SetNode struct {
	ID            int64           `json:"id"`
	State         *int            `json:"state"`
	WinnerID      *int64          `json:"winnerId"`
	Round         int             `json:"round"`
	FullRoundText *string         `json:"fullRoundText"`
	PhaseGroup    *PhaseGroupNode `json:"phaseGroup"`
	Slots         []SlotNode      `json:"slots"`
	Games         []GameNode      `json:"games"`
}

// PhaseGroupNode identifies the bracket pool a set belongs to.
type PhaseGroupNode struct {
	ID                int64     `json:"id"`
	DisplayIdentifier *string   `json:"displayIdentifier"`
	Wave              *WaveNode `json:"wave"`
}

// WaveNode identifies a scheduling wave within a phase.
type WaveNode struct {
	ID         int64   `json:"id"`
	Identifier *string `json:"identifier"`
}

// SlotNode is one side of a set.
type SlotNode struct {
	Entrant  *EntrantNode  `json:"entrant"`
	Standing *SlotStanding `json:"standing"`
}

// SlotStanding carries the per-slot score.
type SlotStanding struct {
	Stats *SlotStats `json:"stats"`
}

// SlotStats wraps the score object.
type SlotStats struct {
	Score *ScoreNode `json:"score"`
}

// ScoreNode is a labelled score value. A nil Value is treated as 0.
type ScoreNode struct {
	Label *string  `json:"label"`
	Value *float64 `json:"value"`
}

// GameNode is one game within a set.
type GameNode struct {
	ID            int64           `json:"id"`
	OrderNum      *int            `json:"orderNum"`
	WinnerID      *int64          `json:"winnerId"`
	Entrant1Score *int            `json:"entrant1Score"`
	Entrant2Score *int            `json:"entrant2Score"`
	Stage         *StageNode      `json:"stage"`
	Selections    []SelectionNode `json:"selections"`
}

// StageNode names the stage a game was played on.
type StageNode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SelectionNode is one player's character selection in a game.
type SelectionNode struct {
	ID        int64          `json:"id"`
	Entrant   *EntrantRef    `json:"entrant"`
	Character *CharacterNode `json:"character"`
}

// EntrantRef is a bare entrant reference inside a selection.
type EntrantRef struct {
	ID int64 `json:"id"`
}

// CharacterNode is a selectable character.
type CharacterNode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PhaseNode identifies a bracket phase.
type PhaseNode struct {
	ID int64 `json:"id"`
}
