package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_Touched(t *testing.T) {
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)

	first := Metadata{}.Touched(created)
	assert.Equal(t, created, first.CreatedAt)
	assert.Equal(t, created, first.UpdatedAt)

	second := first.Touched(later)
	assert.Equal(t, created, second.CreatedAt)
	assert.Equal(t, later, second.UpdatedAt)
}
