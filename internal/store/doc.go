// Package store implements the content-addressed blob store client:
// uploads against an IPFS-compatible add endpoint and downloads through
// an HTTP gateway, with every network call running under the
// transport retry engine.
//
// Uploads are only acknowledged after a second, independently budgeted
// accessibility probe confirms the returned content address resolves on
// the gateway. A ContentDescriptor is therefore proof that the blob was
// both stored and retrievable at least once.
package store
