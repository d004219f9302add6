package models

// SeedCounts reports what a fixture seed did to one table.
type SeedCounts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}
