package domain

import "time"

// Credential is the persisted session token, stored as a single row keyed by
// profile so several backends can share one database file.
type Credential struct {
	Profile   string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Token     string    `gorm:"type:TEXT NOT NULL"`
	UpdatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoUpdateTime"`
}

// TableName implements the GORM tabler interface.
func (Credential) TableName() string { return "credentials" }
