package grove_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/grove"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
)

// ExampleEngine_ColorGroups demonstrates colouring groups from swatches held in memory.
func ExampleEngine_ColorGroups() {
	owner := domain.Node{
		ID: "script", Name: "ColGrps", Role: domain.RoleComponent, Kind: domain.KindScript,
		Inputs: []domain.Input{{Name: domain.InputColors, Sources: []domain.NodeID{"blue"}}},
	}

	// 1. Describe the document: one swatch and one group using its prefix.
	doc, err := memory.NewFromNodes([]domain.Node{
		owner,
		{ID: "blue", Name: "in_Blue", Role: domain.RoleParam, Kind: domain.KindSwatch, Color: domain.RGB(0, 0, 255)},
		{ID: "g1", Name: "Width", Role: domain.RoleGroup},
	})
	if err != nil {
		log.Fatal(err)
	}

	// 2. Bind the policy to the document and enable it.
	engine, err := grove.New(doc)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	policy, err := engine.ColorGroups(ctx, owner)
	if err != nil {
		log.Fatal(err)
	}
	if err := policy.Run(ctx, grove.ColorGroupsSettings{Enable: true, Rename: true}); err != nil {
		log.Fatal(err)
	}

	// 3. Renaming the group with a known prefix recolours it and strips the prefix.
	if err := doc.RenameGroup(ctx, "g1", "in_Width"); err != nil {
		log.Fatal(err)
	}
	g1, _ := doc.Node("g1")
	fmt.Println(g1.Name, g1.Color)

	// Output:
	// Width #0000ff
}
