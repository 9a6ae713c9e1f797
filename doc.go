/*
Package grove keeps the presentation of a node/wire document in sync with its structure.

A document is a graph of nodes (components, parameters, colour swatches) wired together and
organised in possibly nested groups. Grove attaches policies to that document. Each policy
reacts to host notifications and issues presentation changes only: group colours and names,
parameter display modes, wire weights. The structure of the graph is never touched.

# Policies

  - colorgroups: colours a group after the prefix of its nickname ("in_Width" takes the colour
    of the "in_Blue" swatch) and optionally strips the prefix.
  - fixparams: makes parameters display their name instead of their icon.
  - fixwires: fades wires whose sources share no group with their target.

Every policy instance stamps a random identifier on the script component hosting it. When the
component is duplicated or re-instantiated, the superseded instance notices on its next event
and detaches itself.

# Usage

	doc, err := memory.NewFromNodes(nodes)
	if err != nil {
		log.Fatal(err)
	}

	engine, err := grove.New(doc, grove.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	policy, err := engine.ColorGroups(ctx, owner)
	if err != nil {
		log.Fatal(err)
	}

	// Attach the handlers and colour the existing groups once.
	if err := policy.Run(ctx, grove.ColorGroupsSettings{Enable: true, RunOnce: true}); err != nil {
		log.Fatal(err)
	}
	fmt.Println(policy.Report())
*/
package grove
