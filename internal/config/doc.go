// Package config loads runtime configuration for the journal CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults ((*Config).LoadDefaults).
//  2. A JSON file selected with -c or -config.
//  3. Command-line flags (-d, -m, -l, -p, -w, -v).
//
// Durations in the JSON file go through timex.Duration and may be written
// as "750ms" or as integer nanoseconds:
//
//	{
//	  "data_dir": "~/journal",
//	  "media_backend": "s3",
//	  "s3": {"bucket": "journal-media", "region": "eu-west-1"},
//	  "search_refresh_delay": "1s",
//	  "insight": {"enabled": true, "model": "llama3.1"}
//	}
//
// Environment variables are not read; the AWS SDK still consults its own
// credential chain when S3 keys are left empty.
package config
