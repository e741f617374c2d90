package editlock

import (
	"testing"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_SaveEditSave(t *testing.T) {
	state := Initial()
	assert.Equal(t, models.DraftState, state)

	state, err := Transition(state, Save, true)
	require.NoError(t, err)
	assert.Equal(t, models.LockedState, state)

	state, err = Transition(state, Edit, false)
	require.NoError(t, err)
	assert.Equal(t, models.DraftState, state)

	state, err = Transition(state, Save, true)
	require.NoError(t, err)
	assert.Equal(t, models.LockedState, state)
}

func TestTransition_LockedRejectsSave(t *testing.T) {
	state, err := Transition(models.LockedState, Save, true)
	assert.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, models.LockedState, state)
	assert.False(t, CanSave(models.LockedState))
}

func TestTransition_IncompleteStaysDraft(t *testing.T) {
	state, err := Transition(models.DraftState, Save, false)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, models.DraftState, state)
}

func TestTransition_EditOnDraftIsNoop(t *testing.T) {
	state, err := Transition(models.DraftState, Edit, false)
	require.NoError(t, err)
	assert.Equal(t, models.DraftState, state)
	assert.True(t, CanSave(""))
}
