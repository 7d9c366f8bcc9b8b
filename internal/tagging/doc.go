// Package tagging turns a scored candidate list into the user's chosen
// keywords. Interactive runs present a checkbox picker in the terminal;
// scripted runs resolve a selection expression instead. Either way the
// result feeds the same keyword application step.
package tagging
