package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapKeepsMarkerMatchable(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrNoResponse, "inaturalist", "score_image", "", cause)

	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("marker lost: %v", err)
	}
	if errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("wrong marker matched: %v", err)
	}
}

func TestWrapBuildsReadableDetail(t *testing.T) {
	err := Wrap(ErrPrecondition, "observation", "submit", "missing GPS coordinates", nil)
	want := "precondition failed: observation: submit: missing GPS coordinates"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected default marker, got %v", err)
	}
}
