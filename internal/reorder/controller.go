// Package reorder implements the drag-to-reorder interaction of an ordered list.
//
// A Controller never mutates the list it reorders. It reads the list through a
// Collection, tracks one drag gesture at a time in a Session, and reports the outcome of
// a completed gesture as a single move(from, to) call to the list's owner.
package reorder

import (
	"fmt"

	"go.uber.org/zap"
)

// Collection is a read-only view of the ordered list being reordered.
// IDAt must return a stable identity for the item at index.
type Collection interface {
	Len() int
	IDAt(index int) string
}

// MoveFunc is implemented by the owner of the list. It receives at most one call per
// gesture and applies splice semantics: remove the item at from, insert it at to.
type MoveFunc func(from, to int) error

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes how a gesture ended.
type Result struct {
	Moved bool   `json:"moved"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	ID    string `json:"id,omitempty"`
}

type Option func(*Controller)

// WithLogger sets the logger used for gesture lifecycle debug logs.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithStepHook registers fn to be called every time the ghost index takes one step.
// A single Update may take several steps when the pointer jumps; fn sees each of them.
func WithStepHook(fn func(ghost int)) Option {
	return func(c *Controller) { c.onStep = fn }
}

type Controller struct {
	items  Collection
	geom   Geometry
	move   MoveFunc
	log    *zap.Logger
	onStep func(ghost int)

	session *Session
	offsets []int
}

func New(items Collection, geom Geometry, move MoveFunc, opts ...Option) *Controller {
	c := &Controller{
		items: items,
		geom:  geom,
		move:  move,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetGeometry replaces the geometry provider, e.g. after the host re-lays out the list.
func (c *Controller) SetGeometry(g Geometry) { c.geom = g }

func (c *Controller) State() State {
	if c.session != nil {
		return Dragging
	}
	return Idle
}

func (c *Controller) Dragging() bool { return c.session != nil }

// Session returns a copy of the active session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return c.session.clone(), true
}

// Begin opens a drag session for the item at index.
func (c *Controller) Begin(index int) error {
	if c.session != nil {
		return fmt.Errorf("%w: begin while dragging item %d", ErrInvalidState, c.session.SourceIndex)
	}
	n := c.items.Len()
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, n)
	}
	c.session = newSession(c.items, index)
	c.offsets = make([]int, n)
	c.log.Debug("drag begin", zap.Int("index", index), zap.String("id", c.session.SourceID))
	return nil
}

// Update feeds the pointer displacement since the gesture started and returns the new
// ghost index.
func (c *Controller) Update(delta float64) (int, error) {
	s := c.session
	if s == nil {
		return -1, fmt.Errorf("%w: update while idle", ErrInvalidState)
	}
	if !s.matches(c.items) {
		c.cancel("stale")
		return -1, ErrStaleSession
	}
	s.PointerOffset = delta
	prev := s.GhostIndex
	s.GhostIndex = c.walk(s, c.geom.Midpoint(s.SourceIndex)+delta)
	if s.GhostIndex != prev {
		c.refreshOffsets()
	}
	return s.GhostIndex, nil
}

// End commits the gesture. The owner receives exactly one move when the ghost index
// differs from the source index. Calling End while idle is a no-op.
func (c *Controller) End() (Result, error) {
	s := c.session
	if s == nil {
		return Result{}, nil
	}
	if !s.matches(c.items) {
		c.cancel("stale")
		return Result{}, ErrStaleSession
	}
	c.session = nil
	c.offsets = nil

	res := Result{From: s.SourceIndex, To: s.GhostIndex, ID: s.SourceID}
	if s.GhostIndex == s.SourceIndex {
		c.log.Debug("drag end without move", zap.Int("index", s.SourceIndex))
		return res, nil
	}
	if c.move != nil {
		if err := c.move(s.SourceIndex, s.GhostIndex); err != nil {
			return res, err
		}
	}
	res.Moved = true
	c.log.Debug("drag commit", zap.String("id", s.SourceID), zap.Int("from", res.From), zap.Int("to", res.To))
	return res, nil
}

// Cancel discards the active session without emitting a move.
func (c *Controller) Cancel() { c.cancel("cancel") }

// Invalidate tells the controller that the owner changed the collection. Any active
// session is cancelled.
func (c *Controller) Invalidate() { c.cancel("invalidate") }

func (c *Controller) cancel(reason string) {
	if c.session == nil {
		return
	}
	c.log.Debug("drag cancelled", zap.String("reason", reason), zap.String("id", c.session.SourceID))
	c.session = nil
	c.offsets = nil
}

// Offset returns the visual displacement, in slots, of the item rendered at index.
// It is 0 when idle, for the dragged item and for unaffected siblings.
func (c *Controller) Offset(index int) int {
	if index < 0 || index >= len(c.offsets) {
		return 0
	}
	return c.offsets[index]
}

// Offsets returns a copy of all visual offsets, or nil when idle.
func (c *Controller) Offsets() []int {
	if c.offsets == nil {
		return nil
	}
	return append([]int(nil), c.offsets...)
}

// walk moves the ghost index one sibling at a time toward pos.
//
// A sibling is crossed when pos passes its resting midpoint strictly. When the ghost sits
// below the source, the next sibling downward is the one after it; when it sits above the
// source, the sibling at the ghost index itself is displaced and crossing back over its
// midpoint returns it. The upward direction mirrors this.
func (c *Controller) walk(s *Session, pos float64) int {
	n := len(s.ids)
	g := s.GhostIndex
	for {
		k := g
		if g >= s.SourceIndex {
			k = g + 1
		}
		if k >= n || !(pos > c.geom.Midpoint(k)) {
			break
		}
		g++
		c.step(g)
	}
	for {
		k := g
		if g <= s.SourceIndex {
			k = g - 1
		}
		if k < 0 || !(pos < c.geom.Midpoint(k)) {
			break
		}
		g--
		c.step(g)
	}
	return g
}

func (c *Controller) step(g int) {
	if c.onStep != nil {
		c.onStep(g)
	}
}

func (c *Controller) refreshOffsets() {
	s := c.session
	for k := range c.offsets {
		c.offsets[k] = SlotOffset(s.SourceIndex, s.GhostIndex, k)
	}
}

// SlotOffset is the slot displacement of sibling k while the item at source would land at
// ghost: siblings between the two slide one slot toward the vacated source position.
func SlotOffset(source, ghost, k int) int {
	switch {
	case k == source:
		return 0
	case source < ghost && source < k && k <= ghost:
		return -1
	case source > ghost && ghost <= k && k < source:
		return 1
	default:
		return 0
	}
}
