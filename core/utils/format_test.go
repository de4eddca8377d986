package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	sec := func(n int) *int { return &n }

	assert.Equal(t, "0:00", FormatDuration(nil))
	assert.Equal(t, "0:00", FormatDuration(sec(-3)))
	assert.Equal(t, "0:05", FormatDuration(sec(5)))
	assert.Equal(t, "1:00", FormatDuration(sec(60)))
	assert.Equal(t, "4:07", FormatDuration(sec(247)))
	assert.Equal(t, "61:01", FormatDuration(sec(3661)))
}
