package models

import "time"

// SettingRegistrationOpen toggles self-service registration
const SettingRegistrationOpen = "registration_open"

// SiteSetting is a persisted key/value setting. Version increases on every
// write and guards concurrent updates.
type SiteSetting struct {
	Key       string    `json:"key" db:"key" example:"registration_open"`
	Value     string    `json:"value" db:"value" example:"false"`
	Version   int64     `json:"version" db:"version" example:"1"`
	UpdatedBy *int64    `json:"updatedBy,omitempty" db:"updated_by"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
