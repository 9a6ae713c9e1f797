package fixwires

import (
	"fmt"
	"sort"

	"github.com/aretw0/grove/pkg/domain"
)

// MembershipIndex maps every non-group node to the set of groups that contain it,
// directly or through nested groups.
type MembershipIndex struct {
	groups map[domain.NodeID]map[domain.NodeID]struct{}
}

// BuildMembershipIndex indexes nodes. Every non-group node gets an entry, possibly empty.
func BuildMembershipIndex(nodes []domain.Node) *MembershipIndex {
	ix := &MembershipIndex{groups: make(map[domain.NodeID]map[domain.NodeID]struct{}, len(nodes))}
	byID := make(map[domain.NodeID]domain.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		if !n.IsGroup() {
			ix.groups[n.ID] = map[domain.NodeID]struct{}{}
		}
	}

	for _, g := range nodes {
		if !g.IsGroup() {
			continue
		}
		for _, id := range flatten(g, byID, map[domain.NodeID]bool{g.ID: true}) {
			if set, ok := ix.groups[id]; ok {
				set[g.ID] = struct{}{}
			}
		}
	}
	return ix
}

// flatten lists the non-group members of g, descending into nested groups. visited
// breaks membership cycles.
func flatten(g domain.Node, byID map[domain.NodeID]domain.Node, visited map[domain.NodeID]bool) []domain.NodeID {
	var out []domain.NodeID
	for _, id := range g.Members {
		m, ok := byID[id]
		if !ok {
			continue
		}
		if !m.IsGroup() {
			out = append(out, id)
			continue
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, flatten(m, byID, visited)...)
	}
	return out
}

// Len returns the number of indexed nodes.
func (ix *MembershipIndex) Len() int { return len(ix.groups) }

// Indexed reports whether id has an entry.
func (ix *MembershipIndex) Indexed(id domain.NodeID) bool {
	_, ok := ix.groups[id]
	return ok
}

// entry panics on a node that was not indexed: queries must follow a rebuild.
func (ix *MembershipIndex) entry(id domain.NodeID) map[domain.NodeID]struct{} {
	set, ok := ix.groups[id]
	if !ok {
		panic(fmt.Errorf("%w: %s", domain.ErrMissingGroupEntry, id))
	}
	return set
}

// Groups returns the sorted groups containing id.
func (ix *MembershipIndex) Groups(id domain.NodeID) []domain.NodeID {
	set := ix.entry(id)
	out := make([]domain.NodeID, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasGroup reports whether id belongs to at least one group.
func (ix *MembershipIndex) HasGroup(id domain.NodeID) bool {
	return len(ix.entry(id)) > 0
}

// HasCommonGroup reports whether a and b share at least one group.
func (ix *MembershipIndex) HasCommonGroup(a, b domain.NodeID) bool {
	sa, sb := ix.entry(a), ix.entry(b)
	if len(sb) < len(sa) {
		sa, sb = sb, sa
	}
	for g := range sa {
		if _, ok := sb[g]; ok {
			return true
		}
	}
	return false
}
