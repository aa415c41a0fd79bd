package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFoldsAccentsAndCase(t *testing.T) {
	assert.Equal(t, "LIMAO", Normalize("limão"))
	assert.Equal(t, "CORES", Normalize(" córes "))
	assert.Equal(t, "ACUDE", Normalize("açude"))
	assert.Equal(t, "HOUSE", Normalize("house"))
}

func TestNewFiltersToWordLength(t *testing.T) {
	svc, err := New(Options{WordLength: 5})
	assert.NoError(t, err)
	assert.Greater(t, svc.Total(), 0)
	assert.Equal(t, 5, svc.Length())
	assert.True(t, svc.IsAllowed("alloy"))
	assert.True(t, svc.IsAllowed("LOYAL"))
	assert.False(t, svc.IsAllowed("zzzzz"))
}

func TestPickExcludesUsedWords(t *testing.T) {
	svc, err := NewFromList(5, "ALLOY", "LOYAL", "HOUSE")
	assert.NoError(t, err)

	excluded := map[string]struct{}{
		"ALLOY": {},
		"HOUSE": {},
	}
	for i := 0; i < 20; i++ {
		word, ok := svc.Pick(excluded)
		assert.True(t, ok)
		assert.Equal(t, "LOYAL", word)
	}
}

func TestPickExhaustion(t *testing.T) {
	svc, err := NewFromList(5, "ALLOY")
	assert.NoError(t, err)

	word, ok := svc.Pick(map[string]struct{}{"ALLOY": {}})
	assert.False(t, ok)
	assert.Empty(t, word)
}

func TestNewFromListRejectsWrongLength(t *testing.T) {
	_, err := NewFromList(5, "TOOLONGWORD")
	assert.Error(t, err)
}
