package session

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
		ok   bool
	}{
		{"/enable", CommandEnable, true},
		{"disable", CommandDisable, true},
		{"/toggle@relay_bot", CommandToggle, true},
		{" /STATUS ", CommandStatus, true},
		{"/start", CommandNone, false},
		{"/help", CommandNone, false},
		{"", CommandNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCommand(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseCommand(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCommand_IsGateCommand(t *testing.T) {
	for _, c := range []Command{CommandEnable, CommandDisable, CommandToggle} {
		if !c.IsGateCommand() {
			t.Errorf("%q should be a gate command", c)
		}
	}
	for _, c := range []Command{CommandNone, CommandStatus} {
		if c.IsGateCommand() {
			t.Errorf("%q should not be a gate command", c)
		}
	}
}

func TestParseBusyPolicy(t *testing.T) {
	if p, err := ParseBusyPolicy(""); err != nil || p != BusyQueue {
		t.Errorf(`ParseBusyPolicy("") = %q, %v`, p, err)
	}
	if p, err := ParseBusyPolicy("reject"); err != nil || p != BusyReject {
		t.Errorf(`ParseBusyPolicy("reject") = %q, %v`, p, err)
	}
	if _, err := ParseBusyPolicy("drop"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
