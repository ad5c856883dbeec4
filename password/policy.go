package password

import (
	"strings"
	"unicode"
)

// MinLength is the minimum accepted password length, in characters.
const MinLength = 12

// SpecialCharacters lists the characters that satisfy the special-character rule.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// Rule identifies one strength requirement.
type Rule string

const (
	RuleLength    Rule = "length"
	RuleUppercase Rule = "uppercase"
	RuleLowercase Rule = "lowercase"
	RuleDigit     Rule = "digit"
	RuleSpecial   Rule = "special"
	RuleDenylist  Rule = "denylist"
)

var messages = map[Rule]string{
	RuleLength:    "password must be at least 12 characters",
	RuleUppercase: "password must contain at least one uppercase letter",
	RuleLowercase: "password must contain at least one lowercase letter",
	RuleDigit:     "password must contain at least one digit",
	RuleSpecial:   "password must contain at least one special character",
	RuleDenylist:  "password must not follow simple patterns such as 'password123' or 'qwerty123'",
}

// denylist entries are rejected when they appear anywhere in the lowercased password.
var denylist = []string{
	"password",
	"123456",
	"123456789",
	"qwerty",
	"abc123",
	"password1",
	"qwerty123",
}

// PolicyError reports the first strength rule a password failed.
type PolicyError struct {
	Rule    Rule
	Message string
}

func (e *PolicyError) Error() string {
	return e.Message
}

// Message returns the user-facing text for rule, or "" for an unknown rule.
func Message(rule Rule) string {
	return messages[rule]
}

// Check validates pw against every rule and returns the first failure, or nil.
// Letter rules accept ASCII letters only.
func Check(pw string) error {
	if len([]rune(pw)) < MinLength {
		return fail(RuleLength)
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
		if strings.ContainsRune(SpecialCharacters, r) {
			special = true
		}
	}

	switch {
	case !upper:
		return fail(RuleUppercase)
	case !lower:
		return fail(RuleLowercase)
	case !digit:
		return fail(RuleDigit)
	case !special:
		return fail(RuleSpecial)
	}

	lowered := strings.ToLower(pw)
	for _, weak := range denylist {
		if strings.Contains(lowered, weak) {
			return fail(RuleDenylist)
		}
	}
	return nil
}

func fail(rule Rule) *PolicyError {
	return &PolicyError{Rule: rule, Message: messages[rule]}
}
