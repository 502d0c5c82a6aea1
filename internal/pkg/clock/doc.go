// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. Challenge expiry and token lifetimes are all computed
// against an injected Clocker, which lets tests cross TTL boundaries without
// sleeping.
package clock
