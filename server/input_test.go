package server

import (
	"errors"
	"testing"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		action  string
		wantErr bool
	}{
		{"move", `{"action":"move","from":"e2","to":"e4","piece":"PW5"}`, "move", false},
		{"get_state", `{"action":"get_state"}`, "get_state", false},
		{"not json", `{"action":`, "", true},
		{"unknown action", `{"action":"resign"}`, "", true},
		{"move without to", `{"action":"move","from":"e2"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseInput([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("got %v, want ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if msg.Action != tt.action {
				t.Fatalf("action = %q", msg.Action)
			}
		})
	}
}

func TestParseDisconnectPolicy(t *testing.T) {
	for in, want := range map[string]DisconnectPolicy{"": PolicyContinue, "PAUSE": PolicyPause, " end ": PolicyEnd, "continue": PolicyContinue} {
		got, err := ParseDisconnectPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseDisconnectPolicy(%q) = %q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseDisconnectPolicy("explode"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
