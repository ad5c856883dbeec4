// Package password implements the strength policy applied to new account passwords.
//
// # Rules
//
// [Check] evaluates, in order: minimum length of 12 characters, at least one uppercase
// letter, one lowercase letter, one digit, one special character from
// [SpecialCharacters], and finally a denylist of common weak passwords searched for as substrings of
// the lowercased input. The first failing rule is returned as a [*PolicyError] whose
// Message is stable and safe to show to the user.
//
// # What this package must NOT do
//
//   - Hash, store or transmit passwords. The node keystore owns the secret.
//   - Import any other goEstate package.
//   - Include the password in returned errors or logs.
package password
