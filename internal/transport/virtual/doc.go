// Package virtual provides an in-memory transport with emulated earbuds.
//
// Each Device keeps the settings a real unit would and answers framed
// requests from them, so a session can be driven end to end without a
// radio. The earctl --virtual flag and the package tests use it.
package virtual
