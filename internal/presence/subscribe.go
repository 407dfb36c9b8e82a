// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package presence

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

type subscribeConfig struct {
	immediate bool
}

// SubscribeOption configures Subscribe.
type SubscribeOption func(*subscribeConfig)

// FireImmediately calls the callback once at registration with the current
// selection and the zero value as the previous one.
func FireImmediately() SubscribeOption {
	return func(c *subscribeConfig) {
		c.immediate = true
	}
}

// Subscribe calls onChange with (current, previous) every time the value
// returned by selector changes according to equal. Selectors must be pure and
// must not modify the state they are given.
//
// The returned function removes the subscription.
func Subscribe[T any](
	ctx context.Context,
	store *Store,
	selector func(models.RootState) T,
	equal func(a, b T) bool,
	onChange func(ctx context.Context, current, previous T),
	opts ...SubscribeOption,
) func() {
	cfg := subscribeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var last T
	first := cfg.immediate

	init := func(state models.RootState) {
		last = selector(state)
	}

	fn := func(ctx context.Context, state models.RootState) {
		current := selector(state)
		if first {
			first = false
			var zero T
			onChange(ctx, current, zero)
			return
		}
		if equal(current, last) {
			return
		}
		previous := last
		last = current
		onChange(ctx, current, previous)
	}

	return store.register(ctx, init, fn, cfg.immediate)
}
