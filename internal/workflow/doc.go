// Package workflow drives the identify-and-tag pipeline: export the photo,
// score it, filter candidates, collect the user's selection, record keywords,
// and optionally submit an observation. Batches run strictly sequentially;
// a failed photo is reported and the batch moves on.
package workflow
