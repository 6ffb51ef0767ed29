// Package catalogue holds the versioned registry of correction patterns.
//
// A Catalogue is an immutable snapshot: requests in flight keep whichever
// snapshot they started with, and reloads swap a new snapshot in atomically
// via Store. Loading validates the whole catalogue up front; a bad load
// (duplicate pattern ids, malformed regex or relevance expression) rejects
// the new version and leaves the previous one active.
package catalogue
