package identity_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/aretw0/grove/internal/identity"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(id domain.NodeID, name string) domain.Node {
	return domain.Node{ID: id, Name: name, Role: domain.RoleComponent, Kind: domain.KindScript}
}

func TestNew_DrawsBoundedID(t *testing.T) {
	ctx := context.Background()
	owner := script("s1", "ColorGroups")
	doc, err := memory.NewFromNodes([]domain.Node{owner})
	require.NoError(t, err)
	reg := memory.NewRegistry()

	rnd := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		id, err := identity.New(ctx, doc, reg, owner, identity.WithRand(rnd))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(id.ID()), 0)
		assert.Less(t, int(id.ID()), domain.MaxInstanceID)
	}
}

func TestAuthoritative_SupersededInstance(t *testing.T) {
	ctx := context.Background()
	owner := script("s1", "ColorGroups")
	doc, err := memory.NewFromNodes([]domain.Node{owner})
	require.NoError(t, err)
	reg := memory.NewRegistry()

	rnd := rand.New(rand.NewPCG(7, 7))
	old, err := identity.New(ctx, doc, reg, owner, identity.WithRand(rnd))
	require.NoError(t, err)

	ok, err := old.Authoritative(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Re-running the component creates a new instance that stamps the same node.
	var current *identity.Identity
	for {
		current, err = identity.New(ctx, doc, reg, owner, identity.WithRand(rnd))
		require.NoError(t, err)
		if current.ID() != old.ID() {
			break
		}
	}

	ok, err = old.Authoritative(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "superseded instance must not be authoritative")

	ok, err = current.Authoritative(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fmt.Sprintf("id: %d", current.ID()), current.Status())
}

func TestAuthoritative_RequiresExactlyOneMatch(t *testing.T) {
	ctx := context.Background()
	owner := script("s1", "FixWires")
	copyOf := script("s2", "FixWires")
	doc, err := memory.NewFromNodes([]domain.Node{owner, copyOf})
	require.NoError(t, err)
	reg := memory.NewRegistry()

	id, err := identity.New(ctx, doc, reg, owner)
	require.NoError(t, err)

	// A pasted copy that happens to carry the same stamp makes the claim ambiguous.
	require.NoError(t, reg.Stamp(ctx, "s2", id.ID()))
	ok, err := id.Authoritative(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, reg.Stamp(ctx, "s2", id.ID()+1))
	ok, err = id.Authoritative(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthoritative_IgnoresOtherKinds(t *testing.T) {
	ctx := context.Background()
	owner := script("s1", "FixParams")
	impostor := domain.Node{ID: "p1", Name: "FixParams", Role: domain.RoleParam}
	doc, err := memory.NewFromNodes([]domain.Node{owner, impostor})
	require.NoError(t, err)
	reg := memory.NewRegistry()

	id, err := identity.New(ctx, doc, reg, owner)
	require.NoError(t, err)
	require.NoError(t, reg.Stamp(ctx, "p1", id.ID()))

	ok, err := id.Authoritative(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthoritative_DeletedOwner(t *testing.T) {
	ctx := context.Background()
	owner := script("s1", "ColorGroups")
	doc, err := memory.NewFromNodes([]domain.Node{owner})
	require.NoError(t, err)
	reg := memory.NewRegistry()

	id, err := identity.New(ctx, doc, reg, owner)
	require.NoError(t, err)
	require.NoError(t, doc.RemoveNodes(ctx, "s1"))

	ok, err := id.Authoritative(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	owner := script("s1", "ColorGroups")
	doc, err := memory.NewFromNodes([]domain.Node{owner})
	require.NoError(t, err)
	reg := memory.NewRegistry()

	id, err := identity.New(ctx, doc, reg, owner)
	require.NoError(t, err)
	require.NoError(t, id.Release(ctx))

	_, stamped, err := reg.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, stamped)
}
