package fixwires

import (
	"testing"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func group(id domain.NodeID, members ...domain.NodeID) domain.Node {
	return domain.Node{ID: id, Name: string(id), Role: domain.RoleGroup, Members: members}
}

func component(id domain.NodeID, inputs ...domain.Input) domain.Node {
	return domain.Node{ID: id, Name: string(id), Role: domain.RoleComponent, Inputs: inputs}
}

func TestBuildMembershipIndex_Nested(t *testing.T) {
	ix := BuildMembershipIndex([]domain.Node{
		group("G1", "G2", "A"),
		group("G2", "X"),
		component("X"),
		component("A"),
		component("Loose"),
	})

	assert.Equal(t, 3, ix.Len(), "groups are not indexed")
	assert.Equal(t, []domain.NodeID{"G1", "G2"}, ix.Groups("X"))
	assert.Equal(t, []domain.NodeID{"G1"}, ix.Groups("A"))
	assert.Empty(t, ix.Groups("Loose"))

	assert.True(t, ix.HasGroup("X"))
	assert.False(t, ix.HasGroup("Loose"))
	assert.False(t, ix.Indexed("G1"))

	assert.True(t, ix.HasCommonGroup("X", "A"))
	assert.False(t, ix.HasCommonGroup("X", "Loose"))
}

func TestBuildMembershipIndex_Cycle(t *testing.T) {
	ix := BuildMembershipIndex([]domain.Node{
		group("G1", "G2", "A"),
		group("G2", "G1", "B"),
		component("A"),
		component("B"),
	})

	assert.Equal(t, []domain.NodeID{"G1", "G2"}, ix.Groups("A"))
	assert.Equal(t, []domain.NodeID{"G1", "G2"}, ix.Groups("B"))
}

func TestBuildMembershipIndex_DanglingMember(t *testing.T) {
	ix := BuildMembershipIndex([]domain.Node{group("G1", "gone", "A"), component("A")})
	assert.Equal(t, []domain.NodeID{"G1"}, ix.Groups("A"))
	assert.False(t, ix.Indexed("gone"))
}

func TestMembershipIndex_MissingEntryPanics(t *testing.T) {
	ix := BuildMembershipIndex([]domain.Node{component("A")})

	assert.PanicsWithError(t, "missing group entry: B", func() { ix.HasGroup("B") })
	assert.Panics(t, func() { ix.HasCommonGroup("A", "B") })
	assert.Panics(t, func() { ix.Groups("B") })
}
