// Package service contains application services that coordinate domain
// operations across stores, background tasks, and events. Services own
// transaction boundaries and translate store errors into service-level
// errors that API handlers can map to HTTP responses.
package service
