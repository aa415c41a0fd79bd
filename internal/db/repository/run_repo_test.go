package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordrun/wordrun-platform/internal/run"
)

func TestMarshalRunBlobs(t *testing.T) {
	rn := &run.Run{
		UsedWords: []string{"CRANE", "SLATE"},
		History: []run.HistoryEntry{
			{Order: 1, Word: "CRANE", Result: run.ResultWon, AttemptsUsed: 2},
		},
	}

	usedWords, history, err := marshalRunBlobs(rn)
	require.NoError(t, err)
	assert.JSONEq(t, `["CRANE","SLATE"]`, string(usedWords))
	assert.Contains(t, string(history), `"word":"CRANE"`)
	assert.Contains(t, string(history), `"result":"won"`)
}

func TestMarshalRunBlobsEmptyRun(t *testing.T) {
	usedWords, history, err := marshalRunBlobs(&run.Run{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(usedWords))
	assert.Equal(t, "null", string(history))
}

func TestNullableRunID(t *testing.T) {
	assert.Nil(t, nullableRunID(uuid.Nil))

	id := uuid.New()
	got := nullableRunID(id)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}
