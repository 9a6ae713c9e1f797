package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/grove/internal/logging"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
)

// Document implements ports.GraphHost in memory.
//
// Notifications are queued and drained serially: a handler that mutates the document
// (for instance recolouring a group) enqueues the resulting notification, which is
// dispatched only after the current handler returns. Values that don't actually change
// raise nothing, so self-referential recolouring settles.
type Document struct {
	mu    sync.Mutex
	nodes map[domain.NodeID]*domain.Node
	order []domain.NodeID

	subs      map[domain.EventType][]*subscription
	groupSubs map[domain.NodeID][]*subscription
	seq       uint64

	queue       []pending
	dispatching bool

	recordUndo bool
	logger     *slog.Logger
}

var _ ports.GraphHost = (*Document)(nil)

// Option configures the Document.
type Option func(*Document)

// WithUndoNotifications controls whether structural edits (add, remove, regroup, rewire,
// rename) also raise EventUndoStateChanged, the way an editor records an undo step.
// Enabled by default.
func WithUndoNotifications(enabled bool) Option {
	return func(d *Document) {
		d.recordUndo = enabled
	}
}

// WithLogger configures a logger for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		d.logger = logger
	}
}

type pending struct {
	group domain.NodeID // set for EventGroupChanged
	ev    domain.Event
}

type subscription struct {
	doc    *Document
	seq    uint64
	typ    domain.EventType
	group  domain.NodeID
	h      ports.Handler
	closed bool
}

func (s *subscription) Close() {
	s.doc.unsubscribe(s)
}

// NewDocument creates an empty document.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		nodes:      make(map[domain.NodeID]*domain.Node),
		subs:       make(map[domain.EventType][]*subscription),
		groupSubs:  make(map[domain.NodeID][]*subscription),
		recordUndo: true,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromNodes creates a document seeded with nodes, without raising notifications.
func NewFromNodes(nodes []domain.Node, opts ...Option) (*Document, error) {
	d := NewDocument(opts...)
	for _, n := range nodes {
		if err := d.insert(n); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Document) insert(n domain.Node) error {
	if n.ID == "" {
		return fmt.Errorf("node %q missing ID", n.Name)
	}
	if _, exists := d.nodes[n.ID]; exists {
		return fmt.Errorf("duplicate node ID %s", n.ID)
	}
	if n.Role == "" {
		n.Role = domain.RoleOther
	}
	c := n.Clone()
	d.nodes[n.ID] = &c
	d.order = append(d.order, n.ID)
	return nil
}

// ListNodes returns a snapshot of all nodes in insertion order.
func (d *Document) ListNodes(ctx context.Context) ([]domain.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := make([]domain.Node, 0, len(d.order))
	for _, id := range d.order {
		nodes = append(nodes, d.nodes[id].Clone())
	}
	return nodes, nil
}

// ListGroups returns a snapshot of all groups in insertion order.
func (d *Document) ListGroups(ctx context.Context) ([]domain.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var groups []domain.Node
	for _, id := range d.order {
		if n := d.nodes[id]; n.IsGroup() {
			groups = append(groups, n.Clone())
		}
	}
	return groups, nil
}

// Node returns a snapshot of one node.
func (d *Document) Node(id domain.NodeID) (domain.Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	return n.Clone(), true
}

// Subscribers returns the number of live subscriptions, for diagnostics and tests.
func (d *Document) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := 0
	for _, list := range d.subs {
		total += len(list)
	}
	for _, list := range d.groupSubs {
		total += len(list)
	}
	return total
}

func (d *Document) OnNodesAdded(h ports.Handler) ports.Subscription {
	return d.subscribe(domain.EventNodesAdded, "", h)
}

func (d *Document) OnNodesRemoved(h ports.Handler) ports.Subscription {
	return d.subscribe(domain.EventNodesRemoved, "", h)
}

func (d *Document) OnGroupChanged(group domain.NodeID, h ports.Handler) ports.Subscription {
	return d.subscribe(domain.EventGroupChanged, group, h)
}

func (d *Document) OnUndoStateChanged(h ports.Handler) ports.Subscription {
	return d.subscribe(domain.EventUndoStateChanged, "", h)
}

func (d *Document) subscribe(typ domain.EventType, group domain.NodeID, h ports.Handler) ports.Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	s := &subscription{doc: d, seq: d.seq, typ: typ, group: group, h: h}
	if typ == domain.EventGroupChanged {
		d.groupSubs[group] = append(d.groupSubs[group], s)
	} else {
		d.subs[typ] = append(d.subs[typ], s)
	}
	return s
}

func (d *Document) unsubscribe(s *subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	remove := func(list []*subscription) []*subscription {
		out := list[:0]
		for _, cur := range list {
			if cur != s {
				out = append(out, cur)
			}
		}
		return out
	}
	if s.typ == domain.EventGroupChanged {
		d.groupSubs[s.group] = remove(d.groupSubs[s.group])
		if len(d.groupSubs[s.group]) == 0 {
			delete(d.groupSubs, s.group)
		}
		return
	}
	d.subs[s.typ] = remove(d.subs[s.typ])
}

// enqueue must be called with d.mu held.
func (d *Document) enqueue(p pending) {
	d.queue = append(d.queue, p)
}

// enqueueUndo must be called with d.mu held.
func (d *Document) enqueueUndo() {
	if d.recordUndo {
		d.enqueue(pending{ev: domain.Event{Type: domain.EventUndoStateChanged}})
	}
}

// enqueueGroupChanged must be called with d.mu held.
func (d *Document) enqueueGroupChanged(g *domain.Node) {
	d.enqueue(pending{group: g.ID, ev: domain.Event{Type: domain.EventGroupChanged, Group: g.Clone()}})
}

// drain dispatches queued notifications until the queue is empty.
// Calls made while a dispatch is already in progress return immediately; their
// notifications are picked up by the outer loop.
func (d *Document) drain(ctx context.Context) error {
	d.mu.Lock()
	if d.dispatching {
		d.mu.Unlock()
		return nil
	}
	d.dispatching = true
	d.mu.Unlock()

	// A panicking handler must not leave the document stuck in dispatch.
	defer func() {
		if r := recover(); r != nil {
			d.mu.Lock()
			d.dispatching = false
			d.queue = nil
			d.mu.Unlock()
			panic(r)
		}
	}()

	var errs []error
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.dispatching = false
			d.mu.Unlock()
			return errors.Join(errs...)
		}
		p := d.queue[0]
		d.queue = d.queue[1:]

		var targets []*subscription
		if p.ev.Type == domain.EventGroupChanged {
			targets = append(targets, d.groupSubs[p.group]...)
		} else {
			targets = append(targets, d.subs[p.ev.Type]...)
		}
		d.mu.Unlock()

		for _, s := range targets {
			// A handler earlier in this dispatch may have closed a later one.
			d.mu.Lock()
			closed := s.closed
			d.mu.Unlock()
			if closed {
				continue
			}
			if err := s.h(ctx, p.ev); err != nil {
				d.logger.Debug("handler failed", "event", p.ev.Type, "err", err)
				errs = append(errs, fmt.Errorf("%s handler: %w", p.ev.Type, err))
			}
		}
	}
}

func (d *Document) lookup(id domain.NodeID) (*domain.Node, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

func (d *Document) lookupGroup(id domain.NodeID) (*domain.Node, error) {
	n, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	if !n.IsGroup() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotGroup, id)
	}
	return n, nil
}

// SetGroupColor sets a group's colour and raises EventGroupChanged if it differs.
func (d *Document) SetGroupColor(ctx context.Context, group domain.NodeID, color domain.Color) error {
	d.mu.Lock()
	g, err := d.lookupGroup(group)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if g.Color != color {
		g.Color = color
		d.enqueueGroupChanged(g)
	}
	d.mu.Unlock()
	return d.drain(ctx)
}

// RenameGroup sets a group's nickname and raises EventGroupChanged if it differs.
func (d *Document) RenameGroup(ctx context.Context, group domain.NodeID, name string) error {
	d.mu.Lock()
	g, err := d.lookupGroup(group)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if g.Name != name {
		g.Name = name
		d.enqueueGroupChanged(g)
	}
	d.mu.Unlock()
	return d.drain(ctx)
}

// SetParamDisplayMode sets how a param draws its label.
func (d *Document) SetParamDisplayMode(ctx context.Context, param domain.NodeID, mode domain.DisplayMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.lookup(param)
	if err != nil {
		return err
	}
	if !n.IsParam() {
		return fmt.Errorf("node %s is not a param", param)
	}
	n.Display = mode
	return nil
}

// SetWireWeight sets the wire display of one input.
func (d *Document) SetWireWeight(ctx context.Context, edge domain.Edge, weight domain.WireWeight) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.lookup(edge.Node)
	if err != nil {
		return err
	}
	if edge.Input < 0 || edge.Input >= len(n.Inputs) {
		return fmt.Errorf("%w: input %d of %s", domain.ErrNodeNotFound, edge.Input, edge.Node)
	}
	n.Inputs[edge.Input].Weight = weight
	return nil
}

// AddNodes inserts nodes and raises EventNodesAdded. The batch is checked as a whole:
// on error nothing is inserted.
func (d *Document) AddNodes(ctx context.Context, nodes ...domain.Node) error {
	d.mu.Lock()
	if err := d.checkBatch(nodes); err != nil {
		d.mu.Unlock()
		return err
	}
	added := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if err := d.insert(n); err != nil {
			d.mu.Unlock()
			return err
		}
		added = append(added, d.nodes[n.ID].Clone())
	}
	d.enqueue(pending{ev: domain.Event{Type: domain.EventNodesAdded, Nodes: added}})
	d.enqueueUndo()
	d.mu.Unlock()
	return d.drain(ctx)
}

// checkBatch must be called with d.mu held. Members and sources may name nodes of
// the same batch.
func (d *Document) checkBatch(nodes []domain.Node) error {
	batch := make(map[domain.NodeID]domain.Node, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("node %q missing ID", n.Name)
		}
		if _, exists := d.nodes[n.ID]; exists {
			return fmt.Errorf("duplicate node ID %s", n.ID)
		}
		if _, exists := batch[n.ID]; exists {
			return fmt.Errorf("duplicate node ID %s", n.ID)
		}
		batch[n.ID] = n
	}

	for _, n := range nodes {
		for _, m := range n.Members {
			if _, err := d.resolve(m, batch); err != nil {
				return fmt.Errorf("group %s: %w", n.ID, err)
			}
		}
		for i, in := range n.Inputs {
			for _, src := range in.Sources {
				if err := d.checkSource(src, batch); err != nil {
					return fmt.Errorf("node %s input %d: %w", n.ID, i, err)
				}
			}
		}
	}
	return nil
}

// resolve must be called with d.mu held.
func (d *Document) resolve(id domain.NodeID, batch map[domain.NodeID]domain.Node) (domain.Node, error) {
	if n, ok := d.nodes[id]; ok {
		return *n, nil
	}
	if n, ok := batch[id]; ok {
		return n, nil
	}
	return domain.Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
}

// checkSource must be called with d.mu held. Wires leave existing non-group nodes.
func (d *Document) checkSource(src domain.NodeID, batch map[domain.NodeID]domain.Node) error {
	n, err := d.resolve(src, batch)
	if err != nil {
		return err
	}
	if n.IsGroup() {
		return fmt.Errorf("%w: %s", domain.ErrGroupSource, src)
	}
	return nil
}

// RemoveNodes deletes nodes, prunes them from group memberships and wire sources,
// and raises EventNodesRemoved. Groups that lost members raise EventGroupChanged.
func (d *Document) RemoveNodes(ctx context.Context, ids ...domain.NodeID) error {
	d.mu.Lock()
	gone := make(map[domain.NodeID]bool, len(ids))
	removed := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		n, err := d.lookup(id)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		if gone[id] {
			continue
		}
		gone[id] = true
		removed = append(removed, n.Clone())
	}

	order := d.order[:0]
	for _, id := range d.order {
		if gone[id] {
			delete(d.nodes, id)
			continue
		}
		order = append(order, id)
	}
	d.order = order

	var changed []*domain.Node
	for _, id := range d.order {
		n := d.nodes[id]
		if n.IsGroup() {
			if members, pruned := prune(n.Members, gone); pruned {
				n.Members = members
				changed = append(changed, n)
			}
		}
		for i := range n.Inputs {
			n.Inputs[i].Sources, _ = prune(n.Inputs[i].Sources, gone)
		}
	}

	d.enqueue(pending{ev: domain.Event{Type: domain.EventNodesRemoved, Nodes: removed}})
	for _, g := range changed {
		d.enqueueGroupChanged(g)
	}
	d.enqueueUndo()
	d.mu.Unlock()
	return d.drain(ctx)
}

func prune(ids []domain.NodeID, gone map[domain.NodeID]bool) ([]domain.NodeID, bool) {
	out := make([]domain.NodeID, 0, len(ids))
	for _, id := range ids {
		if !gone[id] {
			out = append(out, id)
		}
	}
	return out, len(out) != len(ids)
}

// SetMembers replaces a group's membership.
func (d *Document) SetMembers(ctx context.Context, group domain.NodeID, members ...domain.NodeID) error {
	d.mu.Lock()
	g, err := d.lookupGroup(group)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for _, m := range members {
		if _, err := d.lookup(m); err != nil {
			d.mu.Unlock()
			return fmt.Errorf("group %s: %w", group, err)
		}
	}
	g.Members = append([]domain.NodeID(nil), members...)
	d.enqueueGroupChanged(g)
	d.enqueueUndo()
	d.mu.Unlock()
	return d.drain(ctx)
}

// Rename sets the nickname of any node. Groups also raise EventGroupChanged.
func (d *Document) Rename(ctx context.Context, id domain.NodeID, name string) error {
	d.mu.Lock()
	n, err := d.lookup(id)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if n.Name == name {
		d.mu.Unlock()
		return nil
	}
	n.Name = name
	if n.IsGroup() {
		d.enqueueGroupChanged(n)
	}
	d.enqueueUndo()
	d.mu.Unlock()
	return d.drain(ctx)
}

// Connect replaces the sources wired into one input.
func (d *Document) Connect(ctx context.Context, edge domain.Edge, sources ...domain.NodeID) error {
	d.mu.Lock()
	n, err := d.lookup(edge.Node)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if edge.Input < 0 || edge.Input >= len(n.Inputs) {
		d.mu.Unlock()
		return fmt.Errorf("%w: input %d of %s", domain.ErrNodeNotFound, edge.Input, edge.Node)
	}
	for _, src := range sources {
		if err := d.checkSource(src, nil); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	n.Inputs[edge.Input].Sources = append([]domain.NodeID(nil), sources...)
	d.enqueueUndo()
	d.mu.Unlock()
	return d.drain(ctx)
}

// NotifyUndo raises EventUndoStateChanged regardless of WithUndoNotifications.
func (d *Document) NotifyUndo(ctx context.Context) error {
	d.mu.Lock()
	d.enqueue(pending{ev: domain.Event{Type: domain.EventUndoStateChanged}})
	d.mu.Unlock()
	return d.drain(ctx)
}
