package task

import "taxonomy/scraper/internal/domain"

const TypeCategoryRetry = "CategoryRetryTask"

type CategoryRetryTask struct {
	Site       string          `json:"site"`
	Version    string          `json:"version"`
	Category   domain.Category `json:"category"`
	RetryCount int             `json:"retry_count"` // Number of times this category has been retried
	Error      string          `json:"error"`       // Error message from the last failure
}

func (t *CategoryRetryTask) TaskType() string {
	return TypeCategoryRetry
}

func (t *CategoryRetryTask) TaskValue() ([]byte, error) {
	return encode(t)
}
