/*
Package runs coordinates concurrent run starts across goroutines and replicas.

A Manager decorates a ports.WorkflowService: runs sharing a key (by default the
workflow and its request) never execute at the same time. Local exclusivity uses
reference-counted mutexes; cross-replica exclusivity uses an optional
ports.DistributedLocker such as the redis adapter.
*/
package runs
