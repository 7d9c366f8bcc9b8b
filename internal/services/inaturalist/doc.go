// Package inaturalist integrates with the iNaturalist API: bearer-token
// lifecycle, computer-vision scoring of exported JPEGs, and observation
// submission.
//
// Tokens are pasted by the user (no OAuth flow) and are only trusted for 24
// hours from their save time. The freshness check is purely local; a live
// verification against /v1/users/me exists but runs only when explicitly
// requested.
package inaturalist
