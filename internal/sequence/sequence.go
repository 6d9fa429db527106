// Package sequence keeps only the newest of several in-flight results.
package sequence

import (
	"context"
	"sync/atomic"
)

// Token identifies one issued request. Later tokens compare greater.
type Token uint64

// Sequencer hands out increasing tokens for one debounced input. The zero
// value is ready to use.
type Sequencer struct {
	latest atomic.Uint64
}

// Issue returns a token newer than every token issued before it.
func (s *Sequencer) Issue() Token {
	return Token(s.latest.Add(1))
}

// IsCurrent reports whether no later token has been issued since t.
func (s *Sequencer) IsCurrent(t Token) bool {
	return t != 0 && uint64(t) == s.latest.Load()
}

func (s *Sequencer) Latest() Token {
	return Token(s.latest.Load())
}

// Stamped is a result tagged with the token it was requested under.
type Stamped[T any] struct {
	Token Token
	Value T
}

// Current reports whether the result still belongs to the newest request.
func (st Stamped[T]) Current(s *Sequencer) bool {
	return s.IsCurrent(st.Token)
}

// Follow issues a token, waits for the first value from results and delivers
// it on the returned channel only if the token is still current by then.
// Stale values are dropped and the channel is closed empty.
func Follow[T any](ctx context.Context, s *Sequencer, results <-chan T) <-chan Stamped[T] {
	return FollowToken(ctx, s, s.Issue(), results)
}

// FollowToken is Follow for a token the caller already issued.
func FollowToken[T any](ctx context.Context, s *Sequencer, token Token, results <-chan T) <-chan Stamped[T] {
	out := make(chan Stamped[T], 1)
	go func() {
		defer close(out)
		select {
		case <-ctx.Done():
			return
		case value, ok := <-results:
			if !ok || !s.IsCurrent(token) {
				return
			}
			out <- Stamped[T]{Token: token, Value: value}
		}
	}()
	return out
}
