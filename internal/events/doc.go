// Package events decouples request-handling services from the background
// task pipeline. Services emit TaskRequestEvent values describing work to be
// done; handlers registered on an EventEmitter turn those events into
// concrete tasks. Neither side imports the other, which keeps the service
// and task packages free of circular dependencies.
package events
