package email

import (
	"time"

	"salesforecast/internal/config"
	"salesforecast/internal/predict"
)

// Notifier emails the configured alert recipients about artifact state
// changes.
type Notifier struct {
	service    *Service
	templates  *Templates
	recipients []string
	now        func() time.Time
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		service:    NewService(cfg),
		templates:  NewTemplates(cfg),
		recipients: cfg.AlertEmails,
		now:        time.Now,
	}
}

// Enabled reports whether alerts will actually be sent.
func (n *Notifier) Enabled() bool {
	return n.service.IsEnabled() && len(n.recipients) > 0
}

// ArtifactUnavailable alerts that the artifact for kind cannot be read.
func (n *Notifier) ArtifactUnavailable(kind predict.Kind, uri string, cause error) {
	if !n.Enabled() {
		return
	}
	subject, htmlBody, textBody := n.templates.ArtifactUnavailable(kind.Label(), uri, cause, n.now())
	n.service.SendAsync(n.recipients, subject, htmlBody, textBody)
}

// ArtifactRecovered alerts that the artifact for kind is readable again.
func (n *Notifier) ArtifactRecovered(kind predict.Kind, uri string) {
	if !n.Enabled() {
		return
	}
	subject, htmlBody, textBody := n.templates.ArtifactRecovered(kind.Label(), uri, n.now())
	n.service.SendAsync(n.recipients, subject, htmlBody, textBody)
}
