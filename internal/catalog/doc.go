// Package catalog persists the species keywords applied to photos. Each
// tagging run records its keywords and photo associations in one
// transaction, so a crash mid-run never leaves a photo half-tagged.
package catalog
