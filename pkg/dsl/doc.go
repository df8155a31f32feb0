/*
Package dsl provides a fluent builder for agentgraph workflows.

It registers nodes and their routing in one place and produces a checked
graph.Workflow, so definition errors surface at build time instead of mid-run.

Example usage:

	b := dsl.New("greeting")

	b.Func("extract", extractName).
		Branch(graph.Has("name"), "greet").
		Go("ask")

	b.Func("ask", askForName).Go("extract")

	b.Func("greet", greet).
		Error("ask").
		Terminal()

	wf, err := b.Build()
	// ... pass wf to agentgraph.New(...).Run
*/
package dsl
