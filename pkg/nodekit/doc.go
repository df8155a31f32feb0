// Package nodekit provides the building blocks for workflow nodes: timed adapter
// calls that never leak errors, bounded retries, panic guards, and the two node
// archetypes (Extraction and Aggregation) that most model-calling steps follow.
//
// Nodes receive run metadata through the context the engine hands them, so
// adapter calls made through this package are logged and reported to the
// lifecycle hooks of the run.
package nodekit
