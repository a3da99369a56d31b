// Package mediastore keeps binary attachments (audio, video, images) apart
// from entry rows.
//
// Every blob is addressed by a two-segment path "journal-media/<filename>".
// Three backends exist: a directory on the local disk, an in-process
// afero.MemMapFs that lives only as long as the session, and an
// S3-compatible bucket. When the local directory cannot be written the store
// degrades to memory and IsSupported reports false.
package mediastore
