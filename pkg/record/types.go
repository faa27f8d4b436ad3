package record

// PlayerRecord represents one row of the lake's players table. Field names
// match the registered catalog columns; the JSON SerDe matches keys to
// columns case-insensitively.
type PlayerRecord struct {
	PlayerID  int    `json:"PlayerID"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Team      string `json:"Team"`
	Position  string `json:"Position"`
	Points    int    `json:"Points"`
}
