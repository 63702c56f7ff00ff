package models

import "time"

// NdaVersion is versioned NDA template metadata. Exactly one row carries
// is_current = true at any time, enforced by a partial unique index; the
// active signing flow always binds to that row.
type NdaVersion struct {
	ID              string    `db:"id" json:"id"`
	Version         string    `db:"version" json:"version"`
	Title           string    `db:"title" json:"title"`
	TemplatePath    string    `db:"template_path" json:"template_path"`
	CounterRequired bool      `db:"counter_required" json:"counter_required"`
	IsCurrent       bool      `db:"is_current" json:"is_current"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
