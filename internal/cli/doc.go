// Package cli is the interactive front-end of the journal.
//
// NewApp wires storage, the encryption session, the entry/search/insight
// services, the media store, the import/export reconciler and the optional
// inbox watcher. Run prompts for the passphrase when the journal is
// encrypted and then hands control to a line-oriented REPL (see runREPL).
// Diagnostics go to the logger; only user-facing text is printed.
package cli
