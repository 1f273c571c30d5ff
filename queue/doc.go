// Package queue moves task payloads between the board watcher and the
// dispatcher over a redis list. Delivery is at-least-once; the consumer
// side stays safe because the dispatcher skips tasks already marked
// processed.
package queue
