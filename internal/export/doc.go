// Package export renders a photo into the single temporary JPEG that gets
// uploaded to the vision scorer. The temp directory holds at most one upload
// file; every export clears leftovers from previous runs before writing, so
// repeated exports of the same photo are idempotent.
package export
