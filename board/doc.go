// Package board tracks task processing state: statuses, result comments,
// processed markers for redelivery idempotence, and the domain event log.
// The Store implementation keeps everything in an embedded sqlite database
// through gorm.
package board
