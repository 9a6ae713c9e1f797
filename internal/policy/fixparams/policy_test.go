package fixparams

import (
	"context"
	"testing"

	"github.com/aretw0/grove/internal/runtime"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = domain.Node{ID: "script", Name: "FixParams", Role: domain.RoleComponent, Kind: domain.KindScript}

func setup(t *testing.T) (*memory.Document, *memory.Registry, *Policy) {
	t.Helper()
	doc, err := memory.NewFromNodes([]domain.Node{
		owner,
		{ID: "p1", Name: "Width", Role: domain.RoleParam, Display: domain.DisplayIcon},
		{ID: "p2", Name: "Height", Role: domain.RoleParam, Display: domain.DisplayName},
		{ID: "c1", Name: "Box", Role: domain.RoleComponent, Display: domain.DisplayIcon},
	})
	require.NoError(t, err)
	reg := memory.NewRegistry()

	p, err := New(context.Background(), runtime.Config{Host: doc, Registry: reg, Owner: owner})
	require.NoError(t, err)
	return doc, reg, p
}

func display(t *testing.T, doc *memory.Document, id domain.NodeID) domain.DisplayMode {
	t.Helper()
	n, ok := doc.Node(id)
	require.True(t, ok)
	return n.Display
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()
	doc, _, p := setup(t)

	p1, _ := doc.Node("p1")
	changed, err := p.Normalize(ctx, p1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.DisplayName, display(t, doc, "p1"))

	c1, _ := doc.Node("c1")
	changed, err = p.Normalize(ctx, c1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.DisplayIcon, display(t, doc, "c1"))
}

func TestRun_FixOnce(t *testing.T) {
	ctx := context.Background()
	doc, _, p := setup(t)

	require.NoError(t, p.Run(ctx, Settings{FixOnce: true}))

	assert.Equal(t, domain.DisplayName, display(t, doc, "p1"))
	assert.Equal(t, domain.DisplayName, display(t, doc, "p2"))
	assert.Equal(t, domain.DisplayIcon, display(t, doc, "c1"))
	assert.Equal(t, []string{"Removed param event handlers on document", "Fixed 1 params"}, p.Journal().Lines())
	assert.False(t, p.State().Active)
}

func TestRun_Enable(t *testing.T) {
	ctx := context.Background()
	doc, _, p := setup(t)

	require.NoError(t, p.Run(ctx, Settings{Enable: true}))
	assert.Equal(t, []string{"Added the eventhandlers to OnObjectsAdded"}, p.Journal().Lines())

	require.NoError(t, doc.AddNodes(ctx,
		domain.Node{ID: "p3", Name: "Depth", Role: domain.RoleParam, Display: domain.DisplayIcon},
		domain.Node{ID: "c2", Name: "Sphere", Role: domain.RoleComponent, Display: domain.DisplayIcon},
	))
	assert.Equal(t, domain.DisplayName, display(t, doc, "p3"))
	assert.Equal(t, domain.DisplayIcon, display(t, doc, "c2"))
	// Existing params are only touched by the sweep.
	assert.Equal(t, domain.DisplayIcon, display(t, doc, "p1"))

	t.Run("Disabled", func(t *testing.T) {
		require.NoError(t, p.Run(ctx, Settings{}))
		require.NoError(t, doc.AddNodes(ctx, domain.Node{ID: "p4", Name: "Angle", Role: domain.RoleParam, Display: domain.DisplayIcon}))
		assert.Equal(t, domain.DisplayIcon, display(t, doc, "p4"))
	})
}

func TestOnNodesAdded_Inactive(t *testing.T) {
	ctx := context.Background()
	doc, _, p := setup(t)

	p1, _ := doc.Node("p1")
	require.NoError(t, p.OnNodesAdded(ctx, []domain.Node{p1}))
	assert.Equal(t, domain.DisplayIcon, display(t, doc, "p1"))
}

func TestOnNodesAdded_Stale(t *testing.T) {
	ctx := context.Background()
	doc, reg, p := setup(t)
	require.NoError(t, p.Run(ctx, Settings{Enable: true}))

	require.NoError(t, reg.Stamp(ctx, owner.ID, (p.ID()+1)%domain.MaxInstanceID))

	require.NoError(t, doc.AddNodes(ctx, domain.Node{ID: "p3", Name: "Depth", Role: domain.RoleParam, Display: domain.DisplayIcon}))
	assert.Equal(t, domain.DisplayIcon, display(t, doc, "p3"))
	assert.False(t, p.State().Active)
}
