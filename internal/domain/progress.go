package domain

import "time"

// Progress records that a user completed one level of a scenario.
// The (UserID, ScenarioID, LevelID) triple is unique; records are written
// once and never updated.
type Progress struct {
	ID          int64
	UserID      int64
	ScenarioID  string
	LevelID     string
	CompletedAt time.Time
}

// Key renders the record in the "scenario/level" form the API exposes.
func (p Progress) Key() string {
	return p.ScenarioID + "/" + p.LevelID
}
