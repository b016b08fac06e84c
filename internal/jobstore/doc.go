// Package jobstore persists content factory jobs and pending uploads in
// SQLite.
//
// Jobs move through the pipeline statuses (queued, processing, the per-stage
// checkpoints, and the terminal completed/pending_upload/failed states) while
// stage outputs accumulate on the job row: the validated script, narration and
// caption files, the composed video, and the thumbnail. The store is the
// system of record the monitor API and CLI read from; the work queue only
// carries submission envelopes.
package jobstore
