// Package blobstore abstracts where index snapshots live: in memory for
// tests, on the local filesystem, or in object storage (see the s3 and
// minio subpackages).
//
// Snapshots are immutable blobs written once and read whole; the Store
// interface is deliberately small.
package blobstore
