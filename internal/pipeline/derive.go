package pipeline

import (
	"sort"

	"github.com/smashdata/startgg-harvester/internal/model"
	"github.com/smashdata/startgg-harvester/internal/startgg"
)

// entrantMap resolves per-event entrant ids to global user ids. Entrants
// whose first participant lacks either user or player identity stay
// unmapped; references to them persist as null.
type entrantMap map[int64]int64

func (m entrantMap) lookup(entrantID int64) *int64 {
	if uid, ok := m[entrantID]; ok {
		return &uid
	}
	return nil
}

// userFromEntrant builds a User record from an entrant's first participant.
// Returns false when the entrant has no resolvable user+player identity.
func userFromEntrant(entrant *startgg.EntrantNode) (model.User, bool) {
	if entrant == nil || len(entrant.Participants) == 0 {
		return model.User{}, false
	}
	part := entrant.Participants[0]
	if part.User == nil || part.Player == nil {
		return model.User{}, false
	}

	playerID := part.Player.ID
	user := model.User{
		UserID:        part.User.ID,
		PlayerID:      &playerID,
		GamerTag:      part.Player.GamerTag,
		Prefix:        part.Player.Prefix,
		GenderPronoun: "unknown",
		Discriminator: part.User.Discriminator,
	}
	if part.User.GenderPronoun != nil && *part.User.GenderPronoun != "" {
		user.GenderPronoun = *part.User.GenderPronoun
	}
	applyAuthorizations(&user, part.User.Authorizations)
	return user, true
}

// applyAuthorizations copies the first TWITTER and DISCORD authorization
// into the user record.
func applyAuthorizations(user *model.User, auths []startgg.AuthorizationNode) {
	for _, a := range auths {
		switch a.Type {
		case "TWITTER":
			if user.XID == nil {
				user.XID = a.ExternalID
				user.XName = a.ExternalUsername
			}
		case "DISCORD":
			if user.DiscordID == nil {
				user.DiscordID = a.ExternalID
				user.DiscordName = a.ExternalUsername
			}
		}
	}
}

// collectStandings derives the persisted standings rows, the entrant map,
// and the users discovered from standings, sorted by placement ascending.
func collectStandings(standings []startgg.StandingNode) ([]model.StandingEntry, entrantMap, []model.User) {
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Placement < standings[j].Placement
	})

	entrants := make(entrantMap)
	var users []model.User
	entries := make([]model.StandingEntry, 0, len(standings))
	for _, st := range standings {
		entry := model.StandingEntry{Placement: st.Placement}
		if user, ok := userFromEntrant(st.Entrant); ok {
			entrants[st.Entrant.ID] = user.UserID
			users = append(users, user)
			entry.UserID = &user.UserID
		}
		entries = append(entries, entry)
	}
	return entries, entrants, users
}

// collectSeeds derives the persisted seed rows sorted by seed number, and
// extends the entrant map with entrants that appear only in seeding (for
// example, entrants that never played a recorded set).
func collectSeeds(seeds []startgg.SeedNode, entrants entrantMap) ([]model.SeedEntry, []model.User) {
	sort.SliceStable(seeds, func(i, j int) bool {
		return seeds[i].SeedNum < seeds[j].SeedNum
	})

	var users []model.User
	entries := make([]model.SeedEntry, 0, len(seeds))
	for _, sd := range seeds {
		entry := model.SeedEntry{SeedNum: sd.SeedNum}
		if user, ok := userFromEntrant(sd.Entrant); ok {
			if _, known := entrants[sd.Entrant.ID]; !known {
				entrants[sd.Entrant.ID] = user.UserID
				users = append(users, user)
			}
			entry.UserID = &user.UserID
		}
		entries = append(entries, entry)
	}
	return entries, users
}

// slotScore extracts the numeric score of one slot. Null scores count as 0,
// which is how the upstream reports byes and unreported games.
func slotScore(slot startgg.SlotNode) float64 {
	if slot.Standing == nil || slot.Standing.Stats == nil || slot.Standing.Stats.Score == nil {
		return 0
	}
	if slot.Standing.Stats.Score.Value == nil {
		return 0
	}
	return *slot.Standing.Stats.Score.Value
}

// slotUsable reports whether a slot carries both an entrant and score data.
func slotUsable(slot startgg.SlotNode) bool {
	return slot.Entrant != nil && slot.Standing != nil && slot.Standing.Stats != nil && slot.Standing.Stats.Score != nil
}

// deriveMatch turns one set into a Match row. Returns false for sets that
// do not describe a usable two-sided pairing; those are dropped and
// counted, never errored.
func deriveMatch(set startgg.SetNode, entrants entrantMap) (model.Match, bool) {
	if len(set.Slots) != 2 {
		return model.Match{}, false
	}
	if !slotUsable(set.Slots[0]) || !slotUsable(set.Slots[1]) {
		return model.Match{}, false
	}

	score0 := slotScore(set.Slots[0])
	score1 := slotScore(set.Slots[1])

	// Equal scores keep slot 0 as winner. Upstream reports a handful of
	// such sets; they are preserved rather than adjudicated.
	winner, loser := 0, 1
	if score1 > score0 {
		winner, loser = 1, 0
	}
	winnerScore := slotScore(set.Slots[winner])
	loserScore := slotScore(set.Slots[loser])

	dq := score0 < 0 || score1 < 0
	cancel := !dq && score0 == 0 && score1 == 0

	match := model.Match{
		WinnerID:    entrants.lookup(set.Slots[winner].Entrant.ID),
		LoserID:     entrants.lookup(set.Slots[loser].Entrant.ID),
		WinnerScore: winnerScore,
		LoserScore:  loserScore,
		RoundText:   set.FullRoundText,
		Round:       set.Round,
		DQ:          dq,
		Cancel:      cancel,
		State:       set.State,
	}
	if set.PhaseGroup != nil {
		match.Phase = set.PhaseGroup.DisplayIdentifier
		if set.PhaseGroup.Wave != nil {
			match.Wave = set.PhaseGroup.Wave.Identifier
		}
	}
	match.Details = deriveGames(set.Games, entrants)
	return match, true
}

func deriveGames(games []startgg.GameNode, entrants entrantMap) []model.Game {
	if len(games) == 0 {
		return nil
	}
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		game := model.Game{
			GameID:        g.ID,
			OrderNum:      g.OrderNum,
			Entrant1Score: g.Entrant1Score,
			Entrant2Score: g.Entrant2Score,
		}
		if g.WinnerID != nil {
			game.WinnerID = entrants.lookup(*g.WinnerID)
		}
		if g.Stage != nil {
			game.Stage = &g.Stage.Name
		}
		for _, sel := range g.Selections {
			s := model.Selection{SelectionID: sel.ID}
			if sel.Entrant != nil {
				s.UserID = entrants.lookup(sel.Entrant.ID)
			}
			if sel.Character != nil {
				s.CharacterID = sel.Character.ID
				s.CharacterName = sel.Character.Name
			}
			game.Selections = append(game.Selections, s)
		}
		out = append(out, game)
	}
	return out
}
