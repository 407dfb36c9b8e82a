// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

func storeWith(t *testing.T, actions ...presence.Action) *presence.Store {
	t.Helper()
	ctx := context.Background()
	store := presence.NewStore(models.NewRootState())
	require.NoError(t, store.Dispatch(ctx, presence.CallStarted{}))
	for _, a := range actions {
		require.NoError(t, store.Dispatch(ctx, a))
	}
	return store
}

func TestLinkAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("single stable match", func(t *testing.T) {
		store := storeWith(t, presence.UserJoined{ID: "z1", Name: "Ada"})

		rec, err := NewAccountLinker(store).Link(ctx, "ada", "chat42")
		require.NoError(t, err)
		assert.Equal(t, "z1", rec.MeetingID)
		assert.Equal(t, "chat42", rec.LinkedChatID)

		state := store.State()
		assert.Equal(t, "chat42", state.Presence.ByID["z1"].LinkedChatID)
		assert.Equal(t, "chat42", state.LinkedAccounts.ByMeetingID["z1"])
	})

	t.Run("provisional match is refused", func(t *testing.T) {
		store := storeWith(t, presence.UserJoined{ID: "s.u9", Name: "Ada", Provisional: true})

		_, err := NewAccountLinker(store).Link(ctx, "ada", "chat42")
		assert.ErrorIs(t, err, domain.ErrUnstableIdentity)
		assert.Empty(t, store.State().LinkedAccounts.ByMeetingID)
	})

	t.Run("nobody", func(t *testing.T) {
		store := storeWith(t, presence.UserJoined{ID: "z1", Name: "Ada"})

		_, err := NewAccountLinker(store).Link(ctx, "nobody", "chat42")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})

	t.Run("ambiguous", func(t *testing.T) {
		store := storeWith(t,
			presence.UserJoined{ID: "z1", Name: "Ada"},
			presence.UserJoined{ID: "z2", Name: "ADA"},
		)

		_, err := NewAccountLinker(store).Link(ctx, "Ada", "chat42")
		assert.ErrorIs(t, err, domain.ErrAmbiguousMatch)
		assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))
	})

	t.Run("matches the latest name only", func(t *testing.T) {
		store := storeWith(t,
			presence.UserJoined{ID: "z1", Name: "Ada"},
			presence.UserLeft{ID: "z1", Name: "Countess"},
		)

		_, err := NewAccountLinker(store).Link(ctx, "ada", "chat42")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		rec, err := NewAccountLinker(store).Link(ctx, "  countess ", "chat42")
		require.NoError(t, err)
		assert.Equal(t, "z1", rec.MeetingID)
	})

	t.Run("empty query", func(t *testing.T) {
		store := storeWith(t)
		_, err := NewAccountLinker(store).Link(ctx, "  ", "chat42")
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}
