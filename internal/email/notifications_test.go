package email

import (
	"errors"
	"testing"

	"salesforecast/internal/config"
	"salesforecast/internal/predict"
)

func TestNotifier_Enabled(t *testing.T) {
	tests := []struct {
		name       string
		smtp       bool
		recipients []string
		want       bool
	}{
		{"smtp and recipients", true, []string{"ops@example.com"}, true},
		{"no recipients", true, nil, false},
		{"smtp disabled", false, []string{"ops@example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smtpConfig()
			cfg.SMTPEnabled = tt.smtp
			cfg.AlertEmails = tt.recipients
			if got := NewNotifier(cfg).Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotifier_Disabled_NoOp(t *testing.T) {
	n := NewNotifier(&config.Config{AlertEmails: []string{"ops@example.com"}})
	// neither call may dial out when SMTP is off
	n.ArtifactUnavailable(predict.KindEnsemble, "rf.json", errors.New("gone"))
	n.ArtifactRecovered(predict.KindEnsemble, "rf.json")
}
