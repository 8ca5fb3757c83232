// Package state provides filesystem-backed storage for cached media,
// conversation transcripts, and bedtime reminders.
package state
