package domain

import "time"

// ArchiveEntry is the summary of one loaded game kept in the archive collection.
type ArchiveEntry struct {
	ID          string    `json:"id" bson:"_id"`
	Session     string    `json:"session" bson:"session"`
	PlayerBlack string    `json:"player_black" bson:"player_black"`
	PlayerWhite string    `json:"player_white" bson:"player_white"`
	Result      string    `json:"result" bson:"result"`
	Date        string    `json:"date" bson:"date"`
	Event       string    `json:"event" bson:"event"`
	Komi        float64   `json:"komi" bson:"komi"`
	BoardSize   int       `json:"board_size" bson:"board_size"`
	Nodes       int       `json:"nodes" bson:"nodes"`
	Charset     string    `json:"charset,omitempty" bson:"charset,omitempty"`
	SGF         string    `json:"sgf,omitempty" bson:"sgf"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type ArchiveResponse struct {
	Games []ArchiveEntry `json:"games"`
	Page  int            `json:"page"`
	Total int64          `json:"total"`
}
