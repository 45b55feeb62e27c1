package depository

import "testing"

func TestFilterResult_ZeroValueAllows(t *testing.T) {
	var r FilterResult
	if r.Verdict() != VerdictAllow {
		t.Errorf("expected zero value to allow, got %s", r.Verdict())
	}
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		verdict Verdict
		key     string
		value   any
		delete  bool
	}{
		{name: "true", in: true, verdict: VerdictAllow},
		{name: "false", in: false, verdict: VerdictReject},
		{name: "number", in: 27, verdict: VerdictAllow},
		{name: "nil", in: nil, verdict: VerdictAllow},
		{name: "string", in: "nope", verdict: VerdictAllow},
		{name: "empty map", in: map[string]any{"key": "x"}, verdict: VerdictAllow},
		{name: "value", in: map[string]any{"value": "bob"}, verdict: VerdictOverride, value: "bob"},
		{name: "value with key", in: map[string]any{"key": "1", "value": "bob"}, verdict: VerdictOverride, key: "1", value: "bob"},
		{name: "delete true", in: map[string]any{"delete_value": true}, verdict: VerdictDeleteOverride, delete: true},
		{name: "delete false", in: map[string]any{"delete_value": false}, verdict: VerdictDeleteOverride},
		{name: "delete truthy non-bool", in: map[string]any{"delete_value": 1}, verdict: VerdictDeleteOverride},
		{name: "delete wins over value", in: map[string]any{"delete_value": true, "value": 1}, verdict: VerdictDeleteOverride, delete: true},
		{name: "value wins over false delete", in: map[string]any{"delete_value": false, "value": 1}, verdict: VerdictOverride, value: 1},
		{name: "typed result", in: Override("a", 2), verdict: VerdictOverride, key: "a", value: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeResult(tt.in)
			if got.Verdict() != tt.verdict {
				t.Errorf("verdict = %s, want %s", got.Verdict(), tt.verdict)
			}
			if got.Key() != tt.key {
				t.Errorf("key = %q, want %q", got.Key(), tt.key)
			}
			if got.Value() != tt.value {
				t.Errorf("value = %v, want %v", got.Value(), tt.value)
			}
			if got.Delete() != tt.delete {
				t.Errorf("delete = %v, want %v", got.Delete(), tt.delete)
			}
		})
	}
}

func TestVerdict_String(t *testing.T) {
	for v, want := range map[Verdict]string{
		VerdictAllow:          "allow",
		VerdictReject:         "reject",
		VerdictOverride:       "override",
		VerdictDeleteOverride: "delete_override",
		Verdict(99):           "unknown",
	} {
		if got := v.String(); got != want {
			t.Errorf("Verdict(%d).String() = %q, want %q", v, got, want)
		}
	}
}
