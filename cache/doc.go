// Package cache persists lesson embeddings between pipeline runs.
//
// Remote embedding calls are the expensive, rate-limited resource; the
// cache is the dominant cost-avoidance mechanism. It is a single JSON
// document mapping lesson id to vector, source text, content hash and
// metadata. Deleting the document forces full regeneration.
package cache
