package intent

import "strings"

// Parse reads classifier output into an ActionRecord. The format is one
// "Classification: KIND" line followed by "key: value" parameter lines.
// Parse never fails: malformed lines are skipped and a missing or
// unrecognized classification maps to UNKNOWN.
func Parse(raw string) ActionRecord {
	record := ActionRecord{
		Kind:       KindUnknown,
		WalletType: WalletMine,
		Params:     map[string]string{},
		Raw:        raw,
	}

	sawKind := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if !sawKind && key == "classification" {
			record.Kind = ParseKind(value)
			sawKind = true
			continue
		}
		if key == "" || value == "" {
			continue
		}
		if key == "wallettype" {
			if strings.EqualFold(value, string(WalletSpecified)) {
				record.WalletType = WalletSpecified
			}
			continue
		}
		if _, exists := record.Params[key]; !exists {
			record.Params[key] = value
		}
	}

	return record
}
