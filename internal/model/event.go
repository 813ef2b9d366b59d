package model

// Place is the geographic location of a tournament venue. All fields are
// nullable in the upstream data and persist as null when absent.
type Place struct {
	CountryCode  *string  `json:"country_code"`
	City         *string  `json:"city"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	VenueName    *string  `json:"venue_name"`
	Timezone     *string  `json:"timezone"`
	PostalCode   *string  `json:"postal_code"`
	VenueAddress *string  `json:"venue_address"`
	MapsPlaceID  *string  `json:"maps_place_id"`
}

// EventAttr is the persisted attributes of one completed event (attr.json).
// The numeric EventID is the authoritative identity; the directory the file
// lives in is a derived cache of it.
type EventAttr struct {
	EventID        int64   `json:"event_id"`
	TournamentName string  `json:"tournament_name"`
	EventName      string  `json:"event_name"`
	Region         string  `json:"region"`
	Place          Place   `json:"place"`
	NumEntrants    int     `json:"num_entrants"`
	Offline        bool    `json:"offline"`
	URL            *string `json:"url"`
	Labels         any     `json:"labels"`
	Status         string  `json:"status"`
	Timestamp      int64   `json:"timestamp"`
}

// TournamentEvent is one event reference inside a tournament's event list.
type TournamentEvent struct {
	EventID   int64  `json:"event_id"`
	EventName string `json:"event_name"`
	Path      string `json:"path"`
}

// Tournament groups the events harvested from one gathering. The event list
// is append-only during normal ingestion and fully rewritten during repair.
type Tournament struct {
	TournamentID int64             `json:"tournament_id"`
	Name         string            `json:"name"`
	Events       []TournamentEvent `json:"events"`
}

// HasEvent reports whether the event id is already registered.
func (t *Tournament) HasEvent(eventID int64) bool {
	for _, ev := range t.Events {
		if ev.EventID == eventID {
			return true
		}
	}
	return false
}

// StandingEntry is one row of standings.json: final placement and the
// resolved user, null when the entrant had no resolvable identity.
type StandingEntry struct {
	Placement int    `json:"placement"`
	UserID    *int64 `json:"user_id"`
}

// SeedEntry is one row of seeds.json.
type SeedEntry struct {
	SeedNum int    `json:"seed_num"`
	UserID  *int64 `json:"user_id"`
}
