/*
Package agentgraph is a deterministic engine for agentic workflows: directed graphs
of nodes that call tools and language models, accumulate their results into a shared
state, and let a router pick the next node.

# Concept

A workflow is a registry of named nodes, a router and a step cap. The engine executes
the node under the cursor, asks the router for the next name, and repeats until the
router answers Terminal, a fatal fault occurs, or the cap trips. Only nodes talk to
the outside world, through Tool and Model adapters injected at construction.

Failures are data. A node that cannot complete records the adapter outcome in the
trace and sets a Fault on the state; the router then decides whether to recover or
end the run. The engine never retries.

# Key Features

  - Deterministic control flow: routers decide from the state alone.
  - Immutable snapshots: every step yields a new State, safe to keep and compare.
  - Strict contracts: structured model output is validated against a schema.
  - Observability: lifecycle hooks, structured logging and a full trace per run.

# Usage

	b := dsl.New("greet")
	b.Func("hello", func(ctx context.Context, s *domain.State) *domain.State {
		return s.Set("greeting", "hi")
	}).Terminal()
	wf, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := agentgraph.New(agentgraph.WithWorkflows(wf))
	if err != nil {
		log.Fatal(err)
	}
	record, err := eng.Start(ctx, "greet", "say hi", nil)
*/
package agentgraph
