package ports

import (
	"context"
	"testing"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HostFactory builds a fresh GraphHost seeded with the given nodes.
type HostFactory func(t *testing.T, nodes ...domain.Node) GraphHost

func contractFixture() []domain.Node {
	return []domain.Node{
		{ID: "g1", Name: "in_Inputs", Role: domain.RoleGroup, Members: []domain.NodeID{"p1"}},
		{ID: "p1", Name: "Width", Role: domain.RoleParam, Display: domain.DisplayIcon,
			Inputs: []domain.Input{{Sources: []domain.NodeID{"c1"}, Weight: domain.WeightDefault}}},
		{ID: "c1", Name: "Box", Role: domain.RoleComponent,
			Inputs: []domain.Input{{Name: "A"}, {Name: "B"}}},
	}
}

func findNode(t *testing.T, host GraphHost, id domain.NodeID) domain.Node {
	t.Helper()
	nodes, err := host.ListNodes(context.Background())
	require.NoError(t, err)
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not listed", id)
	return domain.Node{}
}

// RunGraphHostContract runs a suite of tests to verify that a GraphHost implementation
// adheres to the defined interface contract.
func RunGraphHostContract(t *testing.T, newHost HostFactory) {
	ctx := context.Background()

	t.Run("List", func(t *testing.T) {
		host := newHost(t, contractFixture()...)

		nodes, err := host.ListNodes(ctx)
		require.NoError(t, err)
		assert.Len(t, nodes, 3)

		groups, err := host.ListGroups(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, domain.NodeID("g1"), groups[0].ID)
		assert.Equal(t, []domain.NodeID{"p1"}, groups[0].Members)
	})

	t.Run("Snapshots Are Isolated", func(t *testing.T) {
		host := newHost(t, contractFixture()...)

		groups, err := host.ListGroups(ctx)
		require.NoError(t, err)
		groups[0].Members[0] = "tampered"

		assert.Equal(t, []domain.NodeID{"p1"}, findNode(t, host, "g1").Members)
	})

	t.Run("Group Mutators Raise Changed", func(t *testing.T) {
		host := newHost(t, contractFixture()...)

		var seen []domain.Event
		sub := host.OnGroupChanged("g1", func(ctx context.Context, ev domain.Event) error {
			seen = append(seen, ev)
			return nil
		})
		defer sub.Close()

		require.NoError(t, host.SetGroupColor(ctx, "g1", domain.RGB(0, 0, 255)))
		require.NoError(t, host.RenameGroup(ctx, "g1", "Inputs"))

		require.Len(t, seen, 2)
		assert.Equal(t, domain.EventGroupChanged, seen[0].Type)
		assert.Equal(t, domain.RGB(0, 0, 255), seen[0].Group.Color)
		assert.Equal(t, "Inputs", seen[1].Group.Name)

		g := findNode(t, host, "g1")
		assert.Equal(t, "Inputs", g.Name)
		assert.Equal(t, domain.RGB(0, 0, 255), g.Color)
	})

	t.Run("Unchanged Values Raise Nothing", func(t *testing.T) {
		host := newHost(t, contractFixture()...)
		require.NoError(t, host.SetGroupColor(ctx, "g1", domain.RGB(1, 2, 3)))

		calls := 0
		sub := host.OnGroupChanged("g1", func(ctx context.Context, ev domain.Event) error {
			calls++
			return nil
		})
		defer sub.Close()

		require.NoError(t, host.SetGroupColor(ctx, "g1", domain.RGB(1, 2, 3)))
		require.NoError(t, host.RenameGroup(ctx, "g1", "in_Inputs"))
		assert.Zero(t, calls)
	})

	t.Run("Close Stops Delivery", func(t *testing.T) {
		host := newHost(t, contractFixture()...)

		calls := 0
		sub := host.OnGroupChanged("g1", func(ctx context.Context, ev domain.Event) error {
			calls++
			return nil
		})
		sub.Close()
		sub.Close() // idempotent

		require.NoError(t, host.RenameGroup(ctx, "g1", "out_Results"))
		assert.Zero(t, calls)
	})

	t.Run("Param And Wire Mutators", func(t *testing.T) {
		host := newHost(t, contractFixture()...)

		require.NoError(t, host.SetParamDisplayMode(ctx, "p1", domain.DisplayName))
		require.NoError(t, host.SetWireWeight(ctx, domain.Edge{Node: "p1"}, domain.WeightFaint))
		require.NoError(t, host.SetWireWeight(ctx, domain.Edge{Node: "c1", Input: 1}, domain.WeightFaint))

		p1 := findNode(t, host, "p1")
		assert.Equal(t, domain.DisplayName, p1.Display)
		assert.Equal(t, domain.WeightFaint, p1.Inputs[0].Weight)

		c1 := findNode(t, host, "c1")
		assert.NotEqual(t, domain.WeightFaint, c1.Inputs[0].Weight)
		assert.Equal(t, domain.WeightFaint, c1.Inputs[1].Weight)
	})

	t.Run("Missing Nodes", func(t *testing.T) {
		host := newHost(t, contractFixture()...)

		assert.ErrorIs(t, host.SetGroupColor(ctx, "nope", domain.RGB(1, 1, 1)), domain.ErrNodeNotFound)
		assert.ErrorIs(t, host.RenameGroup(ctx, "nope", "x"), domain.ErrNodeNotFound)
		assert.ErrorIs(t, host.SetParamDisplayMode(ctx, "nope", domain.DisplayName), domain.ErrNodeNotFound)
		assert.ErrorIs(t, host.SetWireWeight(ctx, domain.Edge{Node: "nope"}, domain.WeightFaint), domain.ErrNodeNotFound)
		assert.ErrorIs(t, host.SetWireWeight(ctx, domain.Edge{Node: "c1", Input: 7}, domain.WeightFaint), domain.ErrNodeNotFound)
	})
}

// RunInstanceRegistryContract runs a suite of tests to verify that an InstanceRegistry
// implementation adheres to the defined interface contract.
func RunInstanceRegistryContract(t *testing.T, reg InstanceRegistry) {
	ctx := context.Background()

	t.Run("Lookup Unknown", func(t *testing.T) {
		_, ok, err := reg.Lookup(ctx, "contract-unknown")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Stamp Replaces", func(t *testing.T) {
		require.NoError(t, reg.Stamp(ctx, "contract-owner", 12))
		require.NoError(t, reg.Stamp(ctx, "contract-owner", 34))

		id, ok, err := reg.Lookup(ctx, "contract-owner")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.InstanceID(34), id)
	})

	t.Run("Release Keeps Successor", func(t *testing.T) {
		require.NoError(t, reg.Stamp(ctx, "contract-release", 56))

		// A superseded instance releasing must not clear the current stamp.
		require.NoError(t, reg.Release(ctx, "contract-release", 55))
		id, ok, err := reg.Lookup(ctx, "contract-release")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.InstanceID(56), id)

		require.NoError(t, reg.Release(ctx, "contract-release", 56))
		_, ok, err = reg.Lookup(ctx, "contract-release")
		require.NoError(t, err)
		assert.False(t, ok)

		// Releasing twice is a no-op.
		require.NoError(t, reg.Release(ctx, "contract-release", 56))
	})

	t.Run("Zero Is A Valid ID", func(t *testing.T) {
		require.NoError(t, reg.Stamp(ctx, "contract-zero", 0))
		id, ok, err := reg.Lookup(ctx, "contract-zero")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.InstanceID(0), id)
	})
}
