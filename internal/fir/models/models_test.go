package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "firledger/pkg/domain"
)

func TestTransitionGraph(t *testing.T) {
	tests := []struct {
		action Action
		from   id.Status
		to     id.Status
	}{
		{ActionInvestigate, id.StatusFiled, id.StatusInvestigated},
		{ActionApprove, id.StatusInvestigated, id.StatusValidated},
		{ActionReject, id.StatusInvestigated, id.StatusRejected},
		{ActionClose, id.StatusValidated, id.StatusClosed},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			from, ok := RequiredStatus(tt.action)
			require.True(t, ok)
			assert.Equal(t, tt.from, from)

			to, ok := NextStatus(tt.action)
			require.True(t, ok)
			assert.Equal(t, tt.to, to)

			assert.True(t, CanApply(tt.action, tt.from))
		})
	}
}

func TestCanApply_RejectsEverythingElse(t *testing.T) {
	statuses := []id.Status{
		id.StatusFiled, id.StatusInvestigated, id.StatusValidated,
		id.StatusRejected, id.StatusClosed,
	}
	actions := []Action{ActionInvestigate, ActionApprove, ActionReject, ActionClose}

	allowed := map[Action]id.Status{
		ActionInvestigate: id.StatusFiled,
		ActionApprove:     id.StatusInvestigated,
		ActionReject:      id.StatusInvestigated,
		ActionClose:       id.StatusValidated,
	}

	for _, action := range actions {
		for _, status := range statuses {
			want := allowed[action] == status
			assert.Equal(t, want, CanApply(action, status),
				"action=%s from=%s", action, status)
		}
	}

	// Creation has no predecessor and never appears in the graph.
	_, ok := RequiredStatus(ActionCreate)
	assert.False(t, ok)
	assert.False(t, CanApply(ActionCreate, id.StatusFiled))
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	for _, action := range []Action{ActionInvestigate, ActionApprove, ActionReject, ActionClose} {
		assert.False(t, CanApply(action, id.StatusRejected))
		assert.False(t, CanApply(action, id.StatusClosed))
	}
}

func TestNewFIRRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewFIRRecord(1, "0xfiler", "stolen vehicle", now)

	assert.Equal(t, id.FIRID(1), rec.ID)
	assert.Equal(t, id.Identity("0xfiler"), rec.Filer)
	assert.Equal(t, id.StatusFiled, rec.Status)
	assert.Equal(t, now, rec.CreatedAt)

	require.Len(t, rec.History, 1)
	entry := rec.History[0]
	assert.Equal(t, ActionCreate, entry.Action)
	assert.Equal(t, id.Identity("0xfiler"), entry.Actor)
	assert.Equal(t, "stolen vehicle", entry.Message)
	assert.Equal(t, now, entry.Timestamp)
}

func TestFIRRecord_Clone(t *testing.T) {
	now := time.Now()
	rec := NewFIRRecord(1, "0xfiler", "original", now)

	cp := rec.Clone()
	cp.Status = id.StatusInvestigated
	cp.History = append(cp.History, HistoryEntry{Action: ActionInvestigate})
	cp.History[0].Message = "tampered"

	assert.Equal(t, id.StatusFiled, rec.Status, "clone must not alias the original")
	assert.Len(t, rec.History, 1)
	assert.Equal(t, "original", rec.History[0].Message)
}
