// Package queue moves job submissions between the CLI/API producers and the
// worker over RabbitMQ.
//
// Submissions travel as persistent JSON envelopes on a durable queue. The
// consumer uses manual acknowledgement with prefetch so a crashed worker's
// message is re-delivered; re-delivered jobs restart from the first pipeline
// stage. A per-envelope attempt counter enforces the retry budget: failed
// jobs are republished with the counter bumped until the budget runs out.
package queue
