/*
Package ports defines the driven ports (interfaces) of the agentgraph engine.

These interfaces decouple workflow nodes and the engine from the systems they talk
to, so remote tools, language models, run storage and locking can be swapped
without touching workflow code.

# Key Interfaces

  - ToolAdapter: invokes a named remote capability (MCP server, local process, in-process function).
  - ModelAdapter: sends a rendered prompt to a language model and returns its text.
  - PromptLibrary: resolves prompt templates by name.
  - RunStore: persists finished run records.
  - DistributedLocker: serializes access to a run across replicas.
  - WorkflowService: the driving port used by the HTTP and MCP servers.
*/
package ports
