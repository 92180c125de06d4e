package domain

import (
	"strconv"
	"strings"
)

// ClassifierRule maps a lower-cased name prefix to a role
type ClassifierRule struct {
	Tag   string
	Match func(prefix string) bool
	Role  Role
}

// prefixRule matches any alphabetic prefix starting with tag
func prefixRule(tag string, role Role) ClassifierRule {
	return ClassifierRule{
		Tag:   tag,
		Match: func(prefix string) bool { return strings.HasPrefix(prefix, tag) },
		Role:  role,
	}
}

// DefaultRules is the ordered rule list. Evaluation is first-match-wins, so
// multi-letter tags must precede the single-letter classes they overlap with.
var DefaultRules = []ClassifierRule{
	prefixRule("ce", RoleCE),

	prefixRule("crr", RoleCentralReflector),
	prefixRule("ccr", RoleCoreCompute),
	prefixRule("cc", RoleCoreCompute),
	prefixRule("chr", RoleCoreHub),
	prefixRule("ch", RoleCoreHub),
	prefixRule("cr", RoleCentralReflector),
	prefixRule("sa", RoleServiceAggregation),
	prefixRule("dh", RoleDistributionHub),
	prefixRule("ds", RoleDistributionSecondary),
	prefixRule("ah", RoleAccessHub),
	prefixRule("as", RoleAccessSwitch),

	prefixRule("c", RoleCore),
	prefixRule("s", RoleCore),
	prefixRule("d", RoleDistribution),
	prefixRule("a", RoleAccess),
}

// Classifier resolves roles from device names using an ordered rule list
type Classifier struct {
	rules []ClassifierRule
}

// NewClassifier creates a classifier. A nil rule list uses DefaultRules.
func NewClassifier(rules []ClassifierRule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify splits rawName and resolves its role. Total: names that match no
// rule resolve to RoleOther.
func (c *Classifier) Classify(rawName string) (string, *int, Role) {
	prefix, region := ParseName(rawName)
	for _, rule := range c.rules {
		if rule.Match(prefix) {
			return prefix, region, rule.Role
		}
	}
	return prefix, region, RoleOther
}

var defaultClassifier = NewClassifier(nil)

// Classify resolves a name with the default rule list
func Classify(rawName string) (string, *int, Role) {
	return defaultClassifier.Classify(rawName)
}

// ParseName splits a name into its leading alphabetic run (lower-cased) and
// the digit run that immediately follows it.
// Example: "chrg12" -> ("chrg", 12), "CE1" -> ("ce", 1), "xrd" -> ("xrd", nil)
func ParseName(name string) (string, *int) {
	i := 0
	for i < len(name) && isASCIILetter(name[i]) {
		i++
	}
	if i == 0 {
		return "", nil
	}
	prefix := strings.ToLower(name[:i])

	j := i
	for j < len(name) && name[j] >= '0' && name[j] <= '9' {
		j++
	}
	if j == i {
		return prefix, nil
	}

	region, err := strconv.Atoi(name[i:j])
	if err != nil {
		// Digit runs too long for an int carry no usable region
		return prefix, nil
	}
	return prefix, &region
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
