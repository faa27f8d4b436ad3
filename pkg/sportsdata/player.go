package sportsdata

// Player is a single player record as returned by the sports data API.
// The upstream payload carries many more fields; only the ones the lake
// consumes are decoded, the rest are dropped by the JSON decoder.
type Player struct {
	PlayerID  int    `json:"PlayerID"`
	Status    string `json:"Status"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Team      string `json:"Team"`
	Position  string `json:"Position"`
	Jersey    int    `json:"Jersey"`
	Points    int    `json:"Points"`
}
