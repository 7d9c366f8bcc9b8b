package inaturalist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"naturatag/internal/logging"
	"naturatag/internal/services"
)

// Observation is the transient record submitted as an iNaturalist sighting.
// Latitude and Longitude are nil when the photo carries no GPS fix.
type Observation struct {
	SpeciesGuess string
	ObservedOn   string
	Latitude     *float64
	Longitude    *float64
	PhotoPath    string
}

// SubmitObservation posts the observation with its photo to the observations
// endpoint. Whether missing GPS aborts the submission is decided by the
// caller (observation.require_gps); by the time an Observation reaches this
// method, nil coordinates simply omit the fields.
func (c *Client) SubmitObservation(ctx context.Context, obs Observation) error {
	token, err := c.tokens.Token()
	if err != nil {
		return services.Wrap(services.ErrPrecondition, "inaturalist", "submit_observation", "", err)
	}
	if strings.TrimSpace(obs.SpeciesGuess) == "" {
		return services.Wrap(services.ErrPrecondition, "inaturalist", "submit_observation", "species guess is empty", nil)
	}
	if strings.TrimSpace(obs.PhotoPath) == "" {
		return services.Wrap(services.ErrPrecondition, "inaturalist", "submit_observation", "photo path is empty", nil)
	}

	fields := map[string]string{
		"observation[species_guess]":      obs.SpeciesGuess,
		"observation[observed_on_string]": obs.ObservedOn,
	}
	if obs.Latitude != nil && obs.Longitude != nil {
		fields["observation[latitude]"] = strconv.FormatFloat(*obs.Latitude, 'f', -1, 64)
		fields["observation[longitude]"] = strconv.FormatFloat(*obs.Longitude, 'f', -1, 64)
	}

	body, contentType, err := fileUploadBody("file", obs.PhotoPath, fields)
	if err != nil {
		return services.Wrap(services.ErrPrecondition, "inaturalist", "submit_observation", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+observationsPath, body)
	if err != nil {
		return fmt.Errorf("build observation request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.setCommonHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrNoResponse, "inaturalist", "submit_observation", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrInvalidResponse, "inaturalist", "submit_observation",
			fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	c.logger.Info("observation submitted",
		logging.String("species_guess", obs.SpeciesGuess),
		logging.String("observed_on", obs.ObservedOn),
	)
	return nil
}
