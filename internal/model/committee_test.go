package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitteeStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     CommitteeStatus
		to       CommitteeStatus
		expected bool
	}{
		{name: "success: inactive to active", from: CommitteeStatusInactive, to: CommitteeStatusActive, expected: true},
		{name: "success: active to completed", from: CommitteeStatusActive, to: CommitteeStatusCompleted, expected: true},
		{name: "failure: inactive to completed", from: CommitteeStatusInactive, to: CommitteeStatusCompleted},
		{name: "failure: active to inactive", from: CommitteeStatusActive, to: CommitteeStatusInactive},
		{name: "failure: completed to active", from: CommitteeStatusCompleted, to: CommitteeStatusActive},
		{name: "failure: active to active", from: CommitteeStatusActive, to: CommitteeStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPrincipal_IsAdmin(t *testing.T) {
	assert.True(t, Principal{ID: 1, Role: RoleAdmin}.IsAdmin())
	assert.False(t, Principal{ID: 2, Role: RoleUser}.IsAdmin())
}
