// Package importer parses Excel score sheets into assessment records.
// Teachers bulk-upload one row per student; malformed rows are skipped
// and reported rather than failing the whole sheet.
package importer
