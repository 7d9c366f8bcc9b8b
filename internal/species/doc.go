// Package species models the candidate species returned by the iNaturalist
// computer-vision scorer and the rules for filtering and rendering them.
//
// The structured Candidate list is the only transport between the API client,
// the selection UI, and the tagging step. Display labels are rendered one-way
// at presentation time and are never parsed back.
package species
