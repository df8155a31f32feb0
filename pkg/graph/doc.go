/*
Package graph holds the static definition of a workflow: the node registry, the
router table and the Workflow that ties them to a start node and a step cap.

Definitions are built once and are read-only afterwards, so a single Workflow can
be shared by any number of concurrent runs.

	table := graph.NewTable()
	table.Route("extract").When(graph.Has("table"), "fetch").Otherwise("report")
	table.Route("fetch").Otherwise(domain.Terminal).OnFault("report")
	table.Route("report").End()
*/
package graph
