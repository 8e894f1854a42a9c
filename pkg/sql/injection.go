package sql

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionFinding describes a tool argument whose value libinjection
// recognizes as a SQL injection pattern.
type InjectionFinding struct {
	Argument    string // Name of the argument that matched
	Value       string // The matching value
	Fingerprint string // libinjection fingerprint of the pattern
}

// DetectInjection runs libinjection over a single argument value.
//
// Only strings are checked; other types cannot carry an injection payload.
// Returns nil when the value is clean.
//
// Identifiers coming from tool arguments never reach SQL unquoted, so a
// finding is an audit signal, not a rejection.
func DetectInjection(argument string, value any) *InjectionFinding {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(str)
	if !isSQLi {
		return nil
	}
	return &InjectionFinding{
		Argument:    argument,
		Value:       str,
		Fingerprint: string(fingerprint),
	}
}

// DetectInjectionInArguments checks every argument and returns the findings
// ordered by argument name.
func DetectInjectionInArguments(args map[string]any) []InjectionFinding {
	var findings []InjectionFinding
	for name, value := range args {
		if f := DetectInjection(name, value); f != nil {
			findings = append(findings, *f)
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].Argument < findings[j].Argument
	})
	return findings
}
