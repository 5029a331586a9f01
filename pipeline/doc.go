// Package pipeline implements the embedding generation and vector
// ingestion pipeline.
//
// The Generator turns lessons into cached embedding vectors, the
// Uploader pushes the cache to the remote vector index in bounded
// batches, and the Pipeline sequences the two and reports a combined
// summary.
//
// Scheduling is deliberately sequential: one record or one batch is in
// flight at a time, trading throughput for strict compliance with the
// remote services' rate limits. The pipeline suspends only at three
// documented wait points (the generator's throttle pause, the
// uploader's retry delay, and the inter-batch pause), all driven by an
// injectable Clock so tests need no real elapsed time.
package pipeline
