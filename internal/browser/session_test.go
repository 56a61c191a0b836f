package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"taxonomy/scraper/internal/page"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "deadline", err: fmt.Errorf("wait load: %w", context.DeadlineExceeded), want: page.ErrTimeout},
		{name: "element not found", err: &rod.ElementNotFoundError{}, want: page.ErrNotFound},
		{name: "detached node", err: &rod.ObjectNotFoundError{}, want: page.ErrStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, classify(nil))

	other := errors.New("websocket closed")
	assert.Equal(t, other, classify(other))
}

func TestForeignElementIsStale(t *testing.T) {
	s := &Session{}
	ctx := context.Background()

	_, err := s.Text(ctx, "not a rod element")
	assert.ErrorIs(t, err, page.ErrStale)

	var pe *page.Error
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, "text", pe.Op)

	assert.ErrorIs(t, s.Click(ctx, nil), page.ErrStale)
}
