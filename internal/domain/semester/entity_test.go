package semester

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidName(t *testing.T) {
	valid := []string{
		"2022-2023/spring",
		"2022-2023/autumn",
		"1999-2000/spring",
	}
	for _, name := range valid {
		assert.True(t, IsValidName(name), name)
	}

	invalid := []string{
		"",
		"2022-2023",
		"2022-2023/winter",
		"2022/spring",
		"spring/2022-2023",
		"2022-2023/spring ",
		"22-23/autumn",
	}
	for _, name := range invalid {
		assert.False(t, IsValidName(name), name)
	}
}

func TestNewSemester(t *testing.T) {
	s, err := NewSemester("2024-2025/autumn")
	assert.NoError(t, err)
	assert.Equal(t, "2024-2025/autumn", s.Name)
	assert.True(t, s.IsActive)

	_, err = NewSemester("bad name")
	assert.ErrorIs(t, err, ErrInvalidSemesterName)
}
