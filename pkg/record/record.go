package record

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/kingdave4/Nba-Data-Lake/pkg/sportsdata"
)

// FromPlayer projects an upstream player onto the lake schema
func FromPlayer(p sportsdata.Player) PlayerRecord {
	return PlayerRecord{
		PlayerID:  p.PlayerID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Team:      p.Team,
		Position:  p.Position,
		Points:    p.Points,
	}
}

// Normalize projects fetched players onto the lake schema, preserving order
func Normalize(players []sportsdata.Player) []PlayerRecord {
	records := make([]PlayerRecord, len(players))
	for i, p := range players {
		records[i] = FromPlayer(p)
	}
	return records
}

// EncodeLines serializes records as line-delimited JSON, one object per line.
// An empty input yields an empty document; the table then simply has no rows.
func EncodeLines(records []PlayerRecord) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		b, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", r.PlayerID, err)
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// DecodeLines parses a line-delimited JSON document back into records.
// Blank lines are skipped.
func DecodeLines(data []byte) ([]PlayerRecord, error) {
	var records []PlayerRecord
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var r PlayerRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line: %w", err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return records, nil
}
