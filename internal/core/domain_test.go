package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMonth(t *testing.T) {
	for m := 1; m <= 12; m++ {
		assert.NoError(t, ValidateMonth(m))
	}
	assert.ErrorIs(t, ValidateMonth(0), ErrInvalidMonth)
	assert.ErrorIs(t, ValidateMonth(13), ErrInvalidMonth)
	assert.ErrorIs(t, ValidateMonth(-1), ErrInvalidMonth)
}

func TestValidateDescription(t *testing.T) {
	assert.NoError(t, ValidateDescription(""))
	assert.NoError(t, ValidateDescription(strings.Repeat("a", 200)))
	assert.ErrorIs(t, ValidateDescription(strings.Repeat("a", 201)), ErrDescriptionTooLong)
}

func TestNewTagColor(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := NewTagColor()
		require.Len(t, c, 7)
		require.Equal(t, byte('#'), c[0])
		for _, r := range c[1:] {
			require.Contains(t, "0123456789ABCDEF", string(r))
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-03-05T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 14, d.Hour())

	_, err = ParseDate("")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("05/03/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(2024, 1))
	assert.Equal(t, 29, DaysInMonth(2024, 2)) // leap year
	assert.Equal(t, 28, DaysInMonth(2023, 2))
	assert.Equal(t, 28, DaysInMonth(1900, 2)) // century, not a leap year
	assert.Equal(t, 29, DaysInMonth(2000, 2))
	assert.Equal(t, 30, DaysInMonth(2024, 4))
	assert.Equal(t, 31, DaysInMonth(2024, 12))
}
