package domain

import "time"

const MetadataStatusSuccess = "success"

// RawCategoryDocument is the full group to options snapshot of one category.
type RawCategoryDocument struct {
	Site       string        `json:"site"`
	Category   string        `json:"category"`
	Normalized string        `json:"normalized"`
	URL        string        `json:"url"`
	Timestamp  time.Time     `json:"timestamp"`
	Filters    []FilterGroup `json:"filters"`
}

type RawGroupDocument struct {
	Site       string         `json:"site"`
	Category   string         `json:"category"`
	Normalized string         `json:"normalized"`
	Group      string         `json:"group"`
	Options    []FilterOption `json:"options"`
	URL        string         `json:"url"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NormalizedDocument carries the canonical, deduplicated and sorted option
// labels of one normalized group.
type NormalizedDocument struct {
	Site        string    `json:"site"`
	Category    string    `json:"category"`
	CategoryKey string    `json:"category_key"`
	Group       string    `json:"group"`
	GroupKey    string    `json:"group_key"`
	Options     []string  `json:"options"`
	URL         string    `json:"url"`
	Timestamp   time.Time `json:"timestamp"`
}

type GroupSummary struct {
	Group       string `json:"group"`
	GroupKey    string `json:"group_key"`
	OptionCount int    `json:"option_count"`
}

type RunMetadataDocument struct {
	Site           string         `json:"site"`
	Category       string         `json:"category"`
	CategoryKey    string         `json:"category_key"`
	Timestamp      time.Time      `json:"timestamp"`
	GroupsDetected int            `json:"groups_detected"`
	TotalOptions   int            `json:"total_options"`
	Groups         []GroupSummary `json:"groups"`
	Status         string         `json:"status"`
	VersionScraper string         `json:"version_scraper"`
	URL            string         `json:"url"`
	Errors         []string       `json:"errors"`
}

// RunSummaryDocument is appended once per run, so the collection keeps the
// history of every run of a site.
type RunSummaryDocument struct {
	Site       string            `json:"site"`
	Version    string            `json:"version_scraper"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Pending    int               `json:"pending"`
	Total      int               `json:"total"`
	Stopped    bool              `json:"stopped"`
	Error      string            `json:"error,omitempty"`
	Categories []CategorySummary `json:"categories"`
}

type CategorySummary struct {
	Category    string `json:"category"`
	CategoryKey string `json:"category_key"`
	Status      string `json:"status"`
	Groups      int    `json:"groups"`
	Options     int    `json:"options"`
	Error       string `json:"error,omitempty"`
}
