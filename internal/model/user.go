package model

// User is a participant identity. Records are write-once: new data for an
// existing id is dropped during ingestion, and only the explicit refresh
// pass replaces a record by id.
type User struct {
	UserID        int64   `json:"user_id"`
	PlayerID      *int64  `json:"player_id"`
	GamerTag      string  `json:"gamer_tag"`
	Prefix        *string `json:"prefix"`
	GenderPronoun string  `json:"gender_pronoun"`
	Discriminator *string `json:"discriminator"`
	XID           *string `json:"x_id"`
	XName         *string `json:"x_name"`
	DiscordID     *string `json:"discord_id"`
	DiscordName   *string `json:"discord_name"`
}
