// Package analytics derives statistics from decrypted entries: totals and
// streaks, the daily writing prompt, weekday/hour patterns and the weekly
// digest. Everything here is a pure function of its inputs except the
// optional digest narrative, which comes from an insight.Summarizer.
package analytics
