package garden

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"whispers/backend/internal/apperr"
	"whispers/backend/internal/models"
	"whispers/backend/internal/session"
)

// State is the presentation tag of a garden.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateEmpty   State = "empty"
	StateError   State = "error"
)

// Snapshot is a copy of the garden handed to the view layer.
type Snapshot struct {
	State    State                   `json:"state"`
	Thoughts []models.Thought        `json:"thoughts"`
	Stale    bool                    `json:"stale"`
	Counts   map[models.Category]int `json:"counts"`
	Planted  *models.Thought         `json:"planted,omitempty"`
	Notice   *Notice                 `json:"notice,omitempty"`
}

// Options tune a Garden.
type Options struct {
	// RefreshOnFailure re-activates the garden right after a failed
	// mutation instead of waiting for the next read.
	RefreshOnFailure bool
	// IdleTTL is how long a Registry keeps a garden nobody touched.
	// Zero keeps gardens forever.
	IdleTTL time.Duration
	// Now overrides the clock used for ids, timestamps and idle tracking.
	Now func() time.Time
}

// pendingOp is a local mutation made while a fetch was in flight. It is
// replayed on top of the fetch result.
type pendingOp struct {
	add      *models.Thought
	removeID string
}

// activation is one Activate call; callers it supersedes wait on done and
// answer with its result.
type activation struct {
	done   chan struct{}
	result Snapshot
}

// Garden owns the ordered view of one user's thoughts. Mutations are applied
// locally first and then sent to the Store; a remote failure leaves the local
// change in place and marks the garden stale until the next activation.
type Garden struct {
	store            Store
	logger           *zap.Logger
	now              func() time.Time
	refreshOnFailure bool

	mu         sync.Mutex
	loaded     bool
	failed     bool
	thoughts   []models.Thought
	stale      bool
	failures   uint64
	activated  bool
	generation uint64
	cancel     context.CancelFunc
	current    *activation
	pending    []pendingOp
}

// New creates a garden in the loading state.
func New(store Store, logger *zap.Logger, opts Options) *Garden {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Garden{
		store:            store,
		logger:           logger,
		now:              now,
		refreshOnFailure: opts.RefreshOnFailure,
	}
}

// Activate replaces the view with the remote collection, newest first.
// Overlapping activations cancel and supersede each other: only the latest
// fetch writes to the view, and superseded callers answer with its outcome.
// Mutations made while the fetch runs are replayed on top of its result.
func (g *Garden) Activate(ctx context.Context, sess *session.Session) Snapshot {
	act := &activation{done: make(chan struct{})}
	finish := func(snap Snapshot) Snapshot {
		act.result = snap
		close(act.done)
		return snap.clone()
	}

	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.generation++
	gen := g.generation
	g.current = act
	g.activated = true
	g.loaded = false
	g.failed = false

	if !sess.SignedIn() {
		g.failLocked()
		snap := g.snapshotLocked()
		g.mu.Unlock()
		snap.Notice = noticeFor(opActivate, apperr.NotAuthenticated(opActivate))
		return finish(snap)
	}

	failuresAtStart := g.failures
	fetchCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.mu.Unlock()
	defer cancel()

	thoughts, err := g.store.FetchAll(fetchCtx, sess.UserID)

	g.mu.Lock()
	if gen != g.generation {
		next := g.current
		g.mu.Unlock()
		g.logger.Debug("superseded garden fetch, waiting for the latest",
			zap.String("userId", sess.UserID),
			zap.Uint64("generation", gen))

		select {
		case <-next.done:
			return finish(next.result)
		case <-ctx.Done():
			snap := g.Snapshot()
			snap.Notice = noticeFor(opActivate, apperr.Wrap(apperr.KindUnavailable, opActivate, ctx.Err()))
			return finish(snap)
		}
	}
	g.cancel = nil

	if err != nil {
		g.failLocked()
		snap := g.snapshotLocked()
		g.mu.Unlock()
		g.logger.Warn("failed to fetch garden",
			zap.String("userId", sess.UserID),
			zap.Error(err))
		snap.Notice = noticeFor(opActivate, err)
		return finish(snap)
	}

	SortNewestFirst(thoughts)
	g.thoughts = g.replayLocked(thoughts)
	g.loaded = true
	g.stale = g.failures != failuresAtStart
	snap := g.snapshotLocked()
	g.mu.Unlock()
	return finish(snap)
}

// AddThought plants a thought from raw user input. Blank input is ignored.
func (g *Garden) AddThought(ctx context.Context, sess *session.Session, rawText string) Snapshot {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return g.Snapshot()
	}
	if !sess.SignedIn() {
		snap := g.Snapshot()
		snap.Notice = noticeFor(opAdd, apperr.NotAuthenticated(opAdd))
		return snap
	}

	g.mu.Lock()
	now := g.now()
	thought := models.Thought{
		ID:        g.nextIDLocked(now),
		Text:      text,
		CreatedAt: models.FormatTimestamp(now),
		Category:  Classify(text),
	}
	g.thoughts = append([]models.Thought{thought}, g.thoughts...)
	if g.failed {
		// the view now holds local thoughts only, not a failed load
		g.failed = false
		g.loaded = true
		g.stale = true
	}
	if g.fetchingLocked() {
		planted := thought
		g.pending = append(g.pending, pendingOp{add: &planted})
	}
	g.mu.Unlock()

	err := g.store.Append(ctx, sess.UserID, thought)
	if err != nil {
		snap := g.mutationFailed(ctx, sess, opAdd, err)
		snap.Planted = &thought
		return snap
	}

	g.logger.Info("planted thought",
		zap.String("userId", sess.UserID),
		zap.String("thoughtId", thought.ID),
		zap.String("category", string(thought.Category)))
	snap := g.Snapshot()
	snap.Planted = &thought
	return snap
}

// DeleteThought removes the thought with the given id locally and remotely.
// An id that is not in the view leaves the view untouched.
func (g *Garden) DeleteThought(ctx context.Context, sess *session.Session, thoughtID string) Snapshot {
	if !sess.SignedIn() {
		snap := g.Snapshot()
		snap.Notice = noticeFor(opDelete, apperr.NotAuthenticated(opDelete))
		return snap
	}

	g.mu.Lock()
	if idx := g.indexLocked(thoughtID); idx >= 0 {
		g.thoughts = append(g.thoughts[:idx:idx], g.thoughts[idx+1:]...)
	}
	if g.fetchingLocked() {
		g.pending = append(g.pending, pendingOp{removeID: thoughtID})
	}
	g.mu.Unlock()

	if err := g.store.RemoveByID(ctx, sess.UserID, thoughtID); err != nil {
		return g.mutationFailed(ctx, sess, opDelete, err)
	}
	return g.Snapshot()
}

// Snapshot returns the current view without touching the store.
func (g *Garden) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// NeedsRefresh reports whether the view should be re-activated before being
// shown: it was never loaded or a mutation failed since the last load.
func (g *Garden) NeedsRefresh() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.activated || g.stale
}

// mutationFailed marks the view stale and reports the mutation's failure,
// even when the optional refresh fails as well.
func (g *Garden) mutationFailed(ctx context.Context, sess *session.Session, op string, err error) Snapshot {
	notice := noticeFor(op, err)
	g.logger.Warn("garden mutation failed",
		zap.String("op", op),
		zap.String("userId", sess.UserID),
		zap.String("kind", string(notice.Kind)),
		zap.Error(err))

	g.mu.Lock()
	g.stale = true
	g.failures++
	g.mu.Unlock()

	var snap Snapshot
	if g.refreshOnFailure {
		snap = g.Activate(ctx, sess)
		if snap.Notice != nil {
			g.logger.Warn("refresh after failed mutation failed",
				zap.String("op", op),
				zap.String("userId", sess.UserID),
				zap.String("kind", string(snap.Notice.Kind)))
		}
	} else {
		snap = g.Snapshot()
	}
	snap.Notice = notice
	return snap
}

func (g *Garden) failLocked() {
	g.failed = true
	g.loaded = false
	g.thoughts = nil
	g.pending = nil
}

func (g *Garden) fetchingLocked() bool {
	return g.cancel != nil
}

// replayLocked applies the mutations made during the fetch to its result.
func (g *Garden) replayLocked(thoughts []models.Thought) []models.Thought {
	for _, op := range g.pending {
		if op.add != nil {
			id := op.add.ID
			if !slices.ContainsFunc(thoughts, func(t models.Thought) bool { return t.ID == id }) {
				thoughts = append([]models.Thought{*op.add}, thoughts...)
			}
			continue
		}
		thoughts = slices.DeleteFunc(thoughts, func(t models.Thought) bool { return t.ID == op.removeID })
	}
	g.pending = nil
	return thoughts
}

func (g *Garden) indexLocked(id string) int {
	return slices.IndexFunc(g.thoughts, func(t models.Thought) bool { return t.ID == id })
}

// nextIDLocked derives an id from the creation time in milliseconds, bumped
// until it is unique within the view.
func (g *Garden) nextIDLocked(now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if g.indexLocked(id) < 0 {
			return id
		}
		ms++
	}
}

func (g *Garden) snapshotLocked() Snapshot {
	thoughts := make([]models.Thought, len(g.thoughts))
	copy(thoughts, g.thoughts)

	state := StateLoading
	switch {
	case g.failed:
		state = StateError
	case g.loaded && len(thoughts) == 0:
		state = StateEmpty
	case g.loaded:
		state = StateReady
	}

	return Snapshot{
		State:    state,
		Thoughts: thoughts,
		Stale:    g.stale,
		Counts:   CountByCategory(thoughts),
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Thoughts = slices.Clone(s.Thoughts)
	if out.Thoughts == nil {
		out.Thoughts = make([]models.Thought, 0)
	}
	out.Counts = make(map[models.Category]int, len(s.Counts))
	for k, v := range s.Counts {
		out.Counts[k] = v
	}
	return out
}

// SortNewestFirst orders thoughts by CreatedAt descending. Equal timestamps
// keep their relative order; unparseable timestamps sort last.
func SortNewestFirst(thoughts []models.Thought) {
	type keyed struct {
		at      time.Time
		thought models.Thought
	}
	keys := make([]keyed, len(thoughts))
	for i, t := range thoughts {
		at, _ := models.ParseTimestamp(t.CreatedAt)
		keys[i] = keyed{at: at, thought: t}
	}
	slices.SortStableFunc(keys, func(a, b keyed) int {
		return b.at.Compare(a.at)
	})
	for i, k := range keys {
		thoughts[i] = k.thought
	}
}

// CountByCategory tallies the flowers of each kind.
func CountByCategory(thoughts []models.Thought) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	for _, t := range thoughts {
		counts[t.Category]++
	}
	return counts
}
