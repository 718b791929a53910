package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	start := time.Date(2024, 3, 1, 7, 45, 0, 0, time.UTC)
	m := NewMock(start)
	assert.Equal(t, start, m.Now())

	m.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), m.Now())

	m.Set(start)
	assert.Equal(t, start, m.Now())
}

func TestSystemLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := System{Location: loc}.Now()
	assert.Equal(t, loc, now.Location())
}
