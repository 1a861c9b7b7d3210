// Package sanitizer normalises user input before validation and storage.
//
// Every function is idempotent. Input that cannot be normalised is returned
// unchanged or as an empty string so the validator can reject it with a
// precise message.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), parsed against the configured regions
//   - ID numbers: spaces and hyphens removed
//   - Clock times: "9:05" becomes "09:05"
//   - Strings: collapse whitespace, trim leading/trailing spaces
package sanitizer
