// Package id validates and generates log identifiers.
//
// # Format
//
// A log identifier names one uploaded flight log. Identifiers are used to
// build file paths and store keys, so they must match a fixed safe-character
// pattern before any lookup happens. The default pattern admits ASCII
// letters, digits, '-' and '_' (which covers UUIDs), and rejects path
// separators, dots and whitespace.
//
// # Generation
//
// New returns a random (version 4) UUID string, the identifier shape used
// for imported logs.
//
// Usage
//
//	if err := id.Validate(raw); err != nil {
//	    var verr *id.ValidationError
//	    errors.As(err, &verr) // descriptive rejection
//	}
//	v, _ := id.NewValidator(`^[a-f0-9-]{36}$`)
//	_ = v.Validate(id.New())
package id
