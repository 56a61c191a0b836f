package task

import "taxonomy/scraper/internal/domain"

const TypeCategory = "CategoryTask"

// CategoryTask asks a worker to extract and persist one category.
type CategoryTask struct {
	Site     string          `json:"site"`
	Version  string          `json:"version"`  // version tag of the run that discovered the category
	Category domain.Category `json:"category"`
}

func (t *CategoryTask) TaskType() string {
	return TypeCategory
}

func (t *CategoryTask) TaskValue() ([]byte, error) {
	return encode(t)
}
