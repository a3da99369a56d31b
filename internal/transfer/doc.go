// Package transfer exports the journal to a versioned JSON envelope and
// imports native exports, Day One JSON exports and Markdown or plain text
// files.
//
// Imports merge idempotently: a row whose canonical createdAt already exists
// is skipped, including duplicates inside the same file. Per-row problems are
// counted in ImportResult; only an unreadable file fails the whole call.
package transfer
