package game

import (
	"time"

	"github.com/fadedpez/scoreboard/pkg/entities"
)

// ESGame represents an accepted game document in Elasticsearch
type ESGame struct {
	GameID       string     `json:"game_id"`
	Code         int        `json:"code"`
	GroupID      string     `json:"group_id"`
	PromoterID   string     `json:"promoter_id"`
	SeasonID     string     `json:"season_id,omitempty"`
	Mode         string     `json:"mode"`
	State        string     `json:"state"`
	CompleteTime *time.Time `json:"complete_time,omitempty"`
	Players      []ESPlayer `json:"players"`
}

// ESPlayer represents a participant's result in Elasticsearch
type ESPlayer struct {
	ParticipantID string `json:"participant_id"`
	Score         int    `json:"score"`
	RankPoint     int    `json:"rank_point"`
}

const esGameMapping = `{
	"mappings": {
		"properties": {
			"game_id": { "type": "keyword" },
			"code": { "type": "integer" },
			"group_id": { "type": "keyword" },
			"promoter_id": { "type": "keyword" },
			"season_id": { "type": "keyword" },
			"mode": { "type": "keyword" },
			"state": { "type": "keyword" },
			"complete_time": { "type": "date" },
			"players": {
				"type": "nested",
				"properties": {
					"participant_id": { "type": "keyword" },
					"score": { "type": "integer" },
					"rank_point": { "type": "integer" }
				}
			}
		}
	}
}`

// toESGame converts a game into its search document
func toESGame(game *entities.Game) ESGame {
	doc := ESGame{
		GameID:       game.ID,
		Code:         game.Code,
		GroupID:      game.GroupID,
		PromoterID:   game.PromoterID,
		Mode:         string(game.Mode),
		State:        string(game.State),
		CompleteTime: game.CompleteTime,
		Players:      make([]ESPlayer, 0, len(game.Records)),
	}
	if game.SeasonID != nil {
		doc.SeasonID = *game.SeasonID
	}
	for _, r := range game.Records {
		doc.Players = append(doc.Players, ESPlayer{
			ParticipantID: r.ParticipantID,
			Score:         r.Score,
			RankPoint:     r.RankPoint,
		})
	}
	return doc
}
