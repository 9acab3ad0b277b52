package config

import "strings"

// ParseKeyValue parses a single key=value pair and returns the key and value.
// If no value is provided, the value will be empty. Whitespace around the key is dropped.
func ParseKeyValue(input string) (key, val string) {
	key, val, _ = strings.Cut(input, "=")
	key = strings.TrimSpace(key)
	return
}

// ParseKeyValuePairs parses any number of comma-separated key=value lists
// (as given to repeated --set flags) into a single map. Later keys win.
// Empty pairs and pairs without a key are ignored.
func ParseKeyValuePairs(inputs ...string) map[string]string {
	result := make(map[string]string)
	for _, input := range inputs {
		for _, pair := range strings.Split(input, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, val := ParseKeyValue(pair)
			if key != "" {
				result[key] = val
			}
		}
	}
	return result
}
