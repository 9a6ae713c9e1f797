/*
Package dsl provides a Go DSL for programmatically constructing grove documents.

It lets tests and embedding programs describe a node graph with a fluent builder
instead of a YAML or JSON file.

Example usage:

	b := dsl.New()

	b.Script("colgrps", "ColGrps").Colors("blue")
	b.Swatch("blue", "in_Blue", domain.RGB(0, 0, 255))
	b.Group("g1", "in_Width").Members("p1")
	b.Param("p1", "Width")
	b.Component("c1", "Box").Input("W", "p1")

	doc, err := b.Build()
	// ... pass doc to grove.New(...)
*/
package dsl
