package models

import "testing"

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want string
	}{
		{"nil user", nil, ""},
		{"name wins", &User{Sub: "s", Email: "a@example.com", Name: "Alice"}, "Alice"},
		{"email fallback", &User{Sub: "s", Email: "a@example.com"}, "a@example.com"},
		{"sub fallback", &User{Sub: "s"}, "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_EmailPtr(t *testing.T) {
	var u *User
	if u.EmailPtr() != nil {
		t.Error("nil user: expected nil email")
	}
	if (&User{Sub: "s"}).EmailPtr() != nil {
		t.Error("empty email: expected nil")
	}
	got := (&User{Email: "a@example.com"}).EmailPtr()
	if got == nil || *got != "a@example.com" {
		t.Errorf("EmailPtr() = %v, want a@example.com", got)
	}
}

func TestPrediction_Succeeded(t *testing.T) {
	if !(&Prediction{Outcome: OutcomeSuccess}).Succeeded() {
		t.Error("success outcome should report Succeeded")
	}
	if (&Prediction{Outcome: "schema_mismatch"}).Succeeded() {
		t.Error("failure outcome should not report Succeeded")
	}
}
