// Package sanitizer normalizes free-text visitor fields before validation
// and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized is returned trimmed rather than rejected.
//
// Normalization includes:
//   - Text: collapse internal whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
//   - Phone numbers: E.164 (+[country][number]) when the number is valid
package sanitizer
