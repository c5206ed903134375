package fleet

import (
	"context"
	"sync"
	"testing"

	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fleetOf(agents ...AgentSnapshot) Fleet {
	return Fleet{Agents: agents}
}

func TestSelection_FirstSelection(t *testing.T) {
	s := NewSelection()

	_, ok := s.Selected()
	assert.False(t, ok, "initially empty")

	assert.False(t, s.Observe(fleetOf()), "empty fleet selects nothing")
	_, ok = s.Selected()
	assert.False(t, ok)

	assert.True(t, s.Observe(fleetOf(online("b", 1), online("a", 1))))
	id, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "b", id, "first in source order, no sorting")
}

func TestSelection_Stability(t *testing.T) {
	s := NewSelection()
	s.Observe(fleetOf(online("a", 1), online("b", 1)))
	s.Select("b")
	gen := s.Generation()

	offline := AgentSnapshot{AgentID: "b", Status: StatusOffline}
	assert.False(t, s.Observe(fleetOf(online("a", 1), offline)))
	id, _ := s.Selected()
	assert.Equal(t, "b", id, "offline does not move the selection")

	assert.False(t, s.Observe(fleetOf(online("a", 1))))
	id, _ = s.Selected()
	assert.Equal(t, "b", id, "dangling selection is kept")
	assert.Equal(t, gen, s.Generation())

	_, found := s.Resolve(fleetOf(online("a", 1)))
	assert.False(t, found, "presentation renders not-found")
}

func TestSelection_SelectAndClear(t *testing.T) {
	s := NewSelection()
	assert.Equal(t, uint64(0), s.Generation())

	assert.True(t, s.Select("ghost"), "IDs outside the fleet are accepted")
	assert.Equal(t, uint64(1), s.Generation())

	assert.False(t, s.Select("ghost"), "same ID is not a change")
	assert.Equal(t, uint64(1), s.Generation())

	s.Clear()
	assert.Equal(t, uint64(2), s.Generation())
	_, ok := s.Selected()
	assert.False(t, ok)

	s.Clear()
	assert.Equal(t, uint64(2), s.Generation(), "clearing nothing is not a change")

	s.Observe(fleetOf(online("x", 1)))
	id, _ := s.Selected()
	assert.Equal(t, "x", id, "first-selection applies again after Clear")
}

func TestSelection_Resolve(t *testing.T) {
	s := NewSelection()
	f := fleetOf(online("a", 10), online("b", 20))

	_, found := s.Resolve(f)
	assert.False(t, found)

	s.Select("b")
	a, found := s.Resolve(f)
	require.True(t, found)
	assert.Equal(t, 20.0, a.Metrics().CPU())
}

func TestSelection_FollowPoller(t *testing.T) {
	src := &fakeSource{results: []fetchResult{
		{agents: []AgentSnapshot{online("a", 1), online("b", 1)}},
		{agents: []AgentSnapshot{online("b", 1)}},
	}}
	p := NewPoller(src, WithLogger(logger.Noop()))
	s := NewSelection()
	s.Follow(p)

	_, err := p.Refresh(context.Background())
	require.NoError(t, err)
	id, _ := s.Selected()
	assert.Equal(t, "a", id)

	_, err = p.Refresh(context.Background())
	require.NoError(t, err)
	id, _ = s.Selected()
	assert.Equal(t, "a", id, "poll does not reassign a dangling selection")
}

func TestSelection_Concurrent(t *testing.T) {
	s := NewSelection()
	f := fleetOf(online("a", 1), online("b", 1))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); s.Observe(f) }()
		go func() { defer wg.Done(); s.Select("b") }()
		go func() { defer wg.Done(); s.Resolve(f) }()
	}
	wg.Wait()

	id, ok := s.Selected()
	assert.True(t, ok)
	assert.Contains(t, []string{"a", "b"}, id)
}
