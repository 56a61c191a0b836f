package domain

import "taxonomy/scraper/internal/normalize"

// Category is a storefront category discovered from the navigation menu.
type Category struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Key returns the normalized category name used as document key.
func (c Category) Key() string {
	return normalize.Key(c.Name)
}

type CategoryStatus string

func (s CategoryStatus) String() string {
	return string(s)
}

const (
	StatusPending    CategoryStatus = "pending"
	StatusInProgress CategoryStatus = "in_progress"
	StatusSucceeded  CategoryStatus = "succeeded"
	StatusFailed     CategoryStatus = "failed"
)

// Done reports whether the status is terminal.
func (s CategoryStatus) Done() bool {
	return s == StatusSucceeded || s == StatusFailed
}
