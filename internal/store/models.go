package store

import (
	"time"

	"github.com/ppiankov/satyamitra/internal/model"
)

// DomainReputation is the reputation table row, keyed by normalized domain
type DomainReputation struct {
	Domain     string    `gorm:"primaryKey;size:255"`
	Status     string    `gorm:"size:32;not null"`
	Confidence int       `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName keeps the table name stable across drivers
func (DomainReputation) TableName() string { return "domain_reputation" }

// VerificationHistory is one completed run in the append-only audit trail
type VerificationHistory struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        string    `gorm:"size:128;index"`
	ClaimText     string    `gorm:"type:text"`
	Verdict       string    `gorm:"size:16;index"`
	OriginCity    string    `gorm:"size:64"`
	OriginCountry string    `gorm:"size:64"`
	UserRole      string    `gorm:"size:16"`
	InputType     string    `gorm:"size:16"`
	Timestamp     time.Time `gorm:"index"`
}

func (VerificationHistory) TableName() string { return "verification_history" }

// SourceLog attributes a history entry's verdict to one evidence channel
type SourceLog struct {
	ID               uint   `gorm:"primaryKey"`
	ClaimID          uint   `gorm:"index;not null"`
	SourceType       string `gorm:"size:64"`
	SourceIdentifier string `gorm:"size:255"`
	Verdict          string `gorm:"size:16"`
}

func (SourceLog) TableName() string { return "source_logs" }

func (r DomainReputation) toModel() *model.ReputationRecord {
	return &model.ReputationRecord{
		Domain:     r.Domain,
		Status:     model.ReputationStatus(r.Status),
		Confidence: r.Confidence,
	}
}

func historyFromModel(e model.HistoryEntry) VerificationHistory {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return VerificationHistory{
		UserID:        e.UserID,
		ClaimText:     e.ClaimText,
		Verdict:       string(e.Verdict),
		OriginCity:    e.OriginCity,
		OriginCountry: e.OriginCountry,
		UserRole:      string(e.UserRole),
		InputType:     string(e.InputType),
		Timestamp:     ts.UTC(),
	}
}

func (h VerificationHistory) toModel() model.HistoryEntry {
	return model.HistoryEntry{
		ID:            h.ID,
		UserID:        h.UserID,
		ClaimText:     h.ClaimText,
		Verdict:       model.Verdict(h.Verdict),
		OriginCity:    h.OriginCity,
		OriginCountry: h.OriginCountry,
		UserRole:      model.Role(h.UserRole),
		InputType:     model.InputType(h.InputType),
		Timestamp:     h.Timestamp,
	}
}

// SeedReputations is the initial reputation table of a fresh install
var SeedReputations = []model.ReputationRecord{
	{Domain: "theonion.com", Status: model.StatusSatire, Confidence: 100},
	{Domain: "babylonbee.com", Status: model.StatusSatire, Confidence: 100},
	{Domain: "bbc.com", Status: model.StatusTrusted, Confidence: 95},
	{Domain: "reuters.com", Status: model.StatusTrusted, Confidence: 98},
	{Domain: "infowars.com", Status: model.StatusPropaganda, Confidence: 90},
	{Domain: "dailyhealthmiracle.com", Status: model.StatusUnverified, Confidence: 10},
}
