// Package commune provides a reusable library for a document-backed
// content/social store: standalone pages and blog posts, user and group
// profiles with posts embedded in their documents, and the friendship and
// group-membership edges between them.
//
// It exposes a single Service interface backed by a pluggable Repository
// (memory, MongoDB under subpackages) and, for image uploads, pluggable
// BlobStore backends (memory, filesystem, S3).
//
// # Consistency
//
// The store is schema-less and carries no multi-document transactions.
// Slug uniqueness relies on a count-then-insert sequence, so two concurrent
// creations with the same title in the same scope can both observe the same
// count and collide on a slug. Cross-document relationship toggles are
// application-level sagas: if a later write of a toggle fails, the earlier
// writes are compensated and the failure is returned as *RelationshipError,
// whose Compensated field tells whether consistency was restored.
package commune
