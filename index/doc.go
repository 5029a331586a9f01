// Package index provides clients for the remote vector index: the
// bulk-insert endpoint consumed by the upload pipeline and the query
// service consumed by deployment smoke tests. The index itself is an
// opaque remote service; this package only speaks its wire contract.
package index
