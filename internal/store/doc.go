// Package store defines the persistence interfaces for users,
// assessments, and analyses, along with the shared error set and the
// transaction helper. Implementations live in internal/platform.
package store
