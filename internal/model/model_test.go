package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.com", ExtractDomain("user@example.com"))
	assert.Equal(t, "updates.example.com", ExtractDomain("News Weekly <news@updates.example.com>"))
	assert.Equal(t, "example.com", ExtractDomain(`"Last, First" <first.last@example.com>`))
	assert.Equal(t, "nodomain", ExtractDomain("nodomain"))
	assert.Equal(t, "", ExtractDomain(""))
}

func TestConditionValueUnmarshal(t *testing.T) {
	var single ConditionValue
	assert.NoError(t, json.Unmarshal([]byte(`"newsletter"`), &single))
	assert.Equal(t, ConditionValue{"newsletter"}, single)
	assert.Equal(t, "newsletter", single.First())

	var list ConditionValue
	assert.NoError(t, json.Unmarshal([]byte(`["a.com","b.com"]`), &list))
	assert.Equal(t, ConditionValue{"a.com", "b.com"}, list)
	assert.Equal(t, "a.com", list.First())

	var empty ConditionValue
	assert.Equal(t, "", empty.First())

	var bad ConditionValue
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestActionEntryStateRoundTrip(t *testing.T) {
	state := OriginalState{
		IsUnread:     true,
		LabelIDs:     []string{"INBOX", "UNREAD"},
		AddedLabelID: "Label_7",
	}
	entry, err := NewActionEntry("user@example.com", "msg1", ActionLabel, state, time.Now().Add(24*time.Hour), "rule1")
	assert.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Undone)

	got, err := entry.State()
	assert.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestActionEntryUndoable(t *testing.T) {
	now := time.Now()
	entry, err := NewActionEntry("user@example.com", "msg1", ActionTrash, OriginalState{}, now.Add(time.Hour), "")
	assert.NoError(t, err)

	assert.True(t, entry.Undoable(now))
	assert.False(t, entry.Undoable(now.Add(time.Hour)))
	assert.False(t, entry.Undoable(now.Add(2*time.Hour)))

	entry.Undone = true
	assert.False(t, entry.Undoable(now))
}

func TestActionKindValid(t *testing.T) {
	assert.True(t, ActionMarkRead.Valid())
	assert.True(t, ActionArchive.Valid())
	assert.True(t, ActionTrash.Valid())
	assert.True(t, ActionLabel.Valid())
	assert.False(t, ActionKind("snooze").Valid())
}
