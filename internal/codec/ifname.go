package codec

import "strings"

// interfacePrefixes maps abbreviated interface types to their full names
var interfacePrefixes = []struct {
	short string
	full  string
}{
	{"Hu", "HundredGigE"},
	{"Fo", "FortyGigE"},
	{"Te", "TenGigE"},
	{"Gi", "GigabitEthernet"},
	{"Lo", "Loopback"},
	{"Mg", "MgmtEth"},
}

// NormalizeInterface expands short interface names used by topology files
// and LLDP tables, so "Gi0-0-0-1" and "Gi0/0/0/1" both become
// "GigabitEthernet0/0/0/1". Unknown names are returned trimmed.
func NormalizeInterface(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return s
	}

	for _, p := range interfacePrefixes {
		if hasPrefixFold(s, p.full) {
			return p.full + s[len(p.full):]
		}
	}

	for _, p := range interfacePrefixes {
		if !hasPrefixFold(s, p.short) {
			continue
		}
		body := s[len(p.short):]
		if body == "" || body[0] < '0' || body[0] > '9' {
			continue
		}
		return p.full + strings.ReplaceAll(body, "-", "/")
	}
	return s
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
