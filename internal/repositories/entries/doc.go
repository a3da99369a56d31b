// Package entries provides the low-level persistence layer for journal
// entries.
//
// # Overview
//
// The Repository interface stores and loads models.Entry rows verbatim: text
// and tags are written exactly as given, whether plaintext or encrypted
// envelopes. Encryption is applied one layer up, by the entry service.
//
// # Data Model
//
// Each row has an AUTOINCREMENT integer id, canonical UTC createdAt and
// updatedAt strings (lexical order is chronological order), tags and media
// references as JSON, a soft-delete flag and a starred flag. Rows are never
// physically deleted.
//
// # Concurrency
//
// SQLite serializes writers. Overlapping updates to the same id are
// last-write-wins. Iterate holds the connection while it runs, so callbacks
// must not call back into the repository.
//
// Typical Usage
//
//	repo := entries.NewSQLiteRepository(db)
//	id, _ := repo.Add(ctx, &e)
//	_ = repo.Iterate(ctx, entries.Filter{Limit: 20}, func(e models.Entry) (bool, error) {
//	    page = append(page, e)
//	    return true, nil
//	})
//	_ = repo.SoftDelete(ctx, id, time.Now())
package entries
