package app

import (
	"context"
	"log"
	"sync"

	"angostura-trivia-service/internal/domain"
)

// LeaderboardProvider serves ranked result snapshots.
type LeaderboardProvider interface {
	Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error)
}

// MultiListener fans ResultRecorded out to several listeners in order,
// e.g. cache invalidation before the websocket feed refresh.
type MultiListener []ResultListener

func (m MultiListener) ResultRecorded(ctx context.Context) {
	for _, l := range m {
		l.ResultRecorded(ctx)
	}
}

// LeaderboardFeed fans leaderboard snapshots out to websocket subscribers
// whenever a new result is recorded.
type LeaderboardFeed struct {
	provider LeaderboardProvider
	limit    int

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

// NewLeaderboardFeed builds a feed serving the top `limit` entries.
func NewLeaderboardFeed(provider LeaderboardProvider, limit int) *LeaderboardFeed {
	return &LeaderboardFeed{
		provider:    provider,
		limit:       limit,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel that receives leaderboard snapshots,
// starting with the current one. The caller must invoke the returned
// cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := f.provider.Leaderboard(ctx, f.limit)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	ch <- initial

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

// ResultRecorded implements ResultListener: refresh and broadcast.
func (f *LeaderboardFeed) ResultRecorded(ctx context.Context) {
	lb, err := f.provider.Leaderboard(ctx, f.limit)
	if err != nil {
		log.Printf("leaderboard refresh failed: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the stale snapshot so a slow reader never blocks the broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
