// Package services defines the error taxonomy shared by the external
// integrations and the workflow.
//
// Sentinel markers classify failures the way the user experiences them:
// missing preconditions (no token, no GPS), transport failures (no response),
// format failures (invalid response body), and configuration problems. The
// Wrap helper stamps component and operation context onto an error while
// keeping the marker matchable with errors.Is.
package services
