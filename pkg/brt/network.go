package brt

import "strings"

// Single-letter carrier network codes. The network decides which pricing
// table and service rules apply to a shipment.
const (
	NetworkItaly  = "I"
	NetworkEurope = "E"
	NetworkPudo   = "P"
	NetworkB2C    = "B"
	NetworkDPD    = "D"
	NetworkSwiss  = "S"
)

// networkAliases maps the canonical alias name to its network code.
var networkAliases = map[string]string{
	"ITALIA": NetworkItaly,
	"EUROPE": NetworkEurope,
	"PUDO":   NetworkPudo,
	"B2C":    NetworkB2C,
	"DPD":    NetworkDPD,
	"SWISS":  NetworkSwiss,
}

var networkNames = map[string]string{
	NetworkItaly:  "ITALIA",
	NetworkEurope: "EUROPE",
	NetworkPudo:   "PUDO",
	NetworkB2C:    "B2C",
	NetworkDPD:    "DPD",
	NetworkSwiss:  "SWISS",
}

// SanitizeNetworkCode normalizes free-form network input to one of the six
// single-letter codes. It accepts the letter itself, the canonical alias,
// or any unambiguous abbreviation of it, in either case. Unrecognized
// input normalizes to the empty string, meaning "no override"; this never
// fails and never returns a multi-character value.
func SanitizeNetworkCode(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	if s == "" {
		return ""
	}

	if len(s) == 1 {
		if _, ok := networkNames[s]; ok {
			return s
		}
		return ""
	}

	if code, ok := networkAliases[s]; ok {
		return code
	}
	for alias, code := range networkAliases {
		if strings.HasPrefix(alias, s) {
			return code
		}
	}
	return ""
}

// NetworkName returns the canonical alias for a network code, or the empty
// string for an unknown code.
func NetworkName(code string) string {
	return networkNames[code]
}
