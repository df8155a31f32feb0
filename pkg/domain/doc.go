/*
Package domain contains the core models of the agentgraph engine.

It defines the entities every other package speaks in: the State snapshot threaded
through a run, the Node and Router contracts, adapter call descriptors, and the
Fault taxonomy. The package performs no I/O.

# Key Entities

  - State: the immutable snapshot of a run (cursor, step, trace, fields, fault).
  - Message: one entry of the append-only trace.
  - Node / Router: a unit of work and the decision of what runs next.
  - Fault: a structured, machine-readable failure carried by State.
  - CallRecord: the transient outcome of one tool or model call.
*/
package domain
