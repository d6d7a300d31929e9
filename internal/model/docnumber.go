package model

import "time"

// DocumentCounter holds the last issued sequence per (prefix, day).
// Numbers are issued through an atomic upsert so two concurrent submitters
// can never compute the same value.
type DocumentCounter struct {
	Prefix    string    `gorm:"type:varchar(10);primaryKey" json:"prefix"`
	IssueDate string    `gorm:"type:varchar(6);primaryKey" json:"issue_date"` // YYMMDD
	LastSeq   int       `gorm:"type:int;not null;default:0" json:"last_seq"`
	UpdatedAt time.Time `json:"updated_at"`
}
