// Package remote is the HTTP client for the AutoRemote relay service.
//
// The relay exposes three GET endpoints used here:
//
//	/sendmessage?key=K                       key validation (empty message)
//	/sendmessage?key=K&sender=S&message=M    message delivery
//	/registerpc?key=K&id=..&name=..&type=linux&publicip=..&localip=..
//
// Success is signalled by a response body of exactly "OK". Any other body,
// whatever the status code, is a rejection and is returned as a Result for
// the caller to interpret. Only transport failures become errors, and those
// always match ErrNetwork.
//
// Keys are credentials: URLs in errors and logs carry key=REDACTED.
package remote
