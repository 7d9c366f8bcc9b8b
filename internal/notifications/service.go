package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"naturatag/internal/config"
)

const userAgent = "naturatag/0.1"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyIdentificationComplete(ctx context.Context, photo string, candidates int) error
	NotifyPhotoTagged(ctx context.Context, photo string, keywords []string) error
	NotifyObservationSubmitted(ctx context.Context, photo, speciesGuess string) error
	NotifyBatchCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		identification: cfg.Notifications.Identification,
		observation:    cfg.Notifications.Observation,
		errors:         cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	identification bool
	observation    bool
	errors         bool
}

func (n *ntfyService) NotifyIdentificationComplete(ctx context.Context, photo string, candidates int) error {
	if !n.identification {
		return nil
	}
	photo = strings.TrimSpace(photo)
	data := payload{
		title:   "Naturatag - Identified",
		message: fmt.Sprintf("Identified %s: %d candidate species", photo, candidates),
		tags:    []string{"naturatag", "identify", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPhotoTagged(ctx context.Context, photo string, keywords []string) error {
	if !n.identification {
		return nil
	}
	photo = strings.TrimSpace(photo)
	data := payload{
		title:   "Naturatag - Tagged",
		message: fmt.Sprintf("Tagged %s: %s", photo, strings.Join(keywords, ", ")),
		tags:    []string{"naturatag", "tag", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyObservationSubmitted(ctx context.Context, photo, speciesGuess string) error {
	if !n.observation {
		return nil
	}
	data := payload{
		title:   "Naturatag - Observation Submitted",
		message: fmt.Sprintf("Submitted %s as %s", strings.TrimSpace(photo), strings.TrimSpace(speciesGuess)),
		tags:    []string{"naturatag", "observation", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Naturatag - Batch Complete"
		message = fmt.Sprintf("Batch complete: %d photos processed in %s", processed, durationText)
	} else {
		title = "Naturatag - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"naturatag", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Naturatag - Error",
		message:  builder.String(),
		tags:     []string{"naturatag", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Naturatag - Test",
		message:  "Notification system test",
		tags:     []string{"naturatag", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyIdentificationComplete(context.Context, string, int) error     { return nil }
func (noopService) NotifyPhotoTagged(context.Context, string, []string) error           { return nil }
func (noopService) NotifyObservationSubmitted(context.Context, string, string) error    { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
