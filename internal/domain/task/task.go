package task

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned by Decode for a task type no worker handles.
var ErrUnknownType = errors.New("unknown task type")

// Task is a unit of work published on the stream named after its type.
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// Types lists every task type published to a stream, in the order workers
// read them.
var Types = []string{
	TypeCategory,
	TypeCategoryRetry,
}

// Decode rebuilds the task carried by a stream entry of the given type.
func Decode(taskType string, data []byte) (Task, error) {
	var t Task
	switch taskType {
	case TypeCategory:
		t = &CategoryTask{}
	case TypeCategoryRetry:
		t = &CategoryRetryTask{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, taskType)
	}

	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", taskType, err)
	}
	if err := validate(t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", taskType, err)
	}
	return t, nil
}

func encode(t Task) ([]byte, error) {
	return json.Marshal(t)
}

func validate(t Task) error {
	var site, url string
	switch t := t.(type) {
	case *CategoryTask:
		site, url = t.Site, t.Category.URL
	case *CategoryRetryTask:
		site, url = t.Site, t.Category.URL
	}
	if site == "" || url == "" {
		return errors.New("missing site or category url")
	}
	return nil
}
