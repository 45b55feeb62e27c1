package depository

// Verdict tags the variant held by a FilterResult.
type Verdict uint8

const (
	// VerdictAllow lets the change through unchanged.
	VerdictAllow Verdict = iota

	// VerdictReject aborts the whole change.
	VerdictReject

	// VerdictOverride replaces the pending value, optionally at another key.
	VerdictOverride

	// VerdictDeleteOverride sets whether the change deletes, optionally at
	// another key.
	VerdictDeleteOverride
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictReject:
		return "reject"
	case VerdictOverride:
		return "override"
	case VerdictDeleteOverride:
		return "delete_override"
	default:
		return "unknown"
	}
}

// FilterResult is the outcome of a filter. The zero value allows the change.
type FilterResult struct {
	verdict Verdict
	key     string
	value   any
	delete  bool
}

// Allow lets the change proceed to the next filter.
func Allow() FilterResult {
	return FilterResult{verdict: VerdictAllow}
}

// Reject aborts the change.
func Reject() FilterResult {
	return FilterResult{verdict: VerdictReject}
}

// Override replaces the pending value. An empty key keeps the change at its
// own path. Any other key, "." included, is relative to the path the filter
// is registered at; if it names a different path the change is redirected
// there and every more specific filter of the original path is skipped.
func Override(key string, value any) FilterResult {
	return FilterResult{verdict: VerdictOverride, key: key, value: value}
}

// DeleteOverride turns the change into a delete (flag true) or a set of the
// pending value (flag false). The key is resolved as for Override.
func DeleteOverride(key string, flag bool) FilterResult {
	return FilterResult{verdict: VerdictDeleteOverride, key: key, delete: flag}
}

// Verdict returns the variant of the result.
func (r FilterResult) Verdict() Verdict { return r.verdict }

// Key returns the relative redirect key of an override.
func (r FilterResult) Key() string { return r.key }

// Value returns the replacement value of an Override.
func (r FilterResult) Value() any { return r.value }

// Delete returns the flag of a DeleteOverride.
func (r FilterResult) Delete() bool { return r.delete }

// DecodeResult maps a dynamically typed filter outcome onto a FilterResult:
//   - false rejects; true and any other non-map value allow
//   - a map with "delete_value" is a DeleteOverride, true only for boolean true
//   - a map with "value" is an Override
//   - both honour an optional string "key"
//   - a map with neither field allows
func DecodeResult(v any) FilterResult {
	switch r := v.(type) {
	case FilterResult:
		return r
	case bool:
		if r {
			return Allow()
		}
		return Reject()
	case map[string]any:
		key, _ := r["key"].(string)
		flag, hasDelete := r["delete_value"]
		value, hasValue := r["value"]
		switch {
		case hasDelete && flag == true:
			return DeleteOverride(key, true)
		case hasValue:
			return Override(key, value)
		case hasDelete:
			return DeleteOverride(key, false)
		}
		return Allow()
	default:
		return Allow()
	}
}
