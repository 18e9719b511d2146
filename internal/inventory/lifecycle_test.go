package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/inventory"
	"github.com/noah-isme/storefront-engine/internal/product"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to product.Status
		action   inventory.Action
		ok       bool
	}{
		{product.StatusDraft, product.StatusActive, inventory.ActionPublish, true},
		{product.StatusActive, product.StatusArchived, inventory.ActionArchive, true},
		{product.StatusArchived, product.StatusDraft, inventory.ActionUnarchive, true},
		{product.StatusActive, product.StatusDraft, inventory.ActionDraft, true},
		{product.StatusDraft, product.StatusArchived, "", false},
		{product.StatusArchived, product.StatusActive, "", false},
		{product.StatusActive, product.StatusActive, "", false},
		{product.StatusDraft, product.StatusDraft, "", false},
	}
	for _, tc := range cases {
		action, err := inventory.Transition(tc.from, tc.to)
		if tc.ok {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			require.Equal(t, tc.action, action)
			require.Equal(t, tc.to, inventory.TargetFor(action))
			continue
		}
		require.ErrorIs(t, err, common.ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	_, err := inventory.Transition(product.StatusDraft, "deleted")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestVerificationRequirement(t *testing.T) {
	require.True(t, inventory.ActionArchive.RequiresVerification())
	require.True(t, inventory.ActionUnarchive.RequiresVerification())
	require.False(t, inventory.ActionPublish.RequiresVerification())
	require.False(t, inventory.ActionDraft.RequiresVerification())

	_, err := inventory.ParseVerifiableAction("publish")
	require.ErrorIs(t, err, common.ErrValidation)
	a, err := inventory.ParseVerifiableAction("unarchive")
	require.NoError(t, err)
	require.Equal(t, inventory.ActionUnarchive, a)
}
