// Package domain contains the core entities of the assessment system:
// users, student assessment records, and the analyses produced for
// them, together with their validation rules. It has no dependencies
// on infrastructure or delivery mechanisms.
package domain
