// Package calendar wraps the Google Calendar API behind the provider adapter
// surface the tool layer calls: list events, create, delete, free/busy, and
// free-slot derivation. Deletion is idempotent and every call carries a
// bounded timeout.
package calendar
