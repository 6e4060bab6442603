// Package s3 implements blobstore.Store on Amazon S3, with an optional
// DynamoDB-backed commit pointer for coordinating the CURRENT snapshot
// between concurrent writers.
package s3
