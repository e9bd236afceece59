// Package proxy defines the primitives of a server that answers the requests
// of the clients on behalf of the ledger.
package proxy

import (
	"net"
	"net/http"
)

// Proxy defines the primitives to implement an http server that handles
// client side requests.
type Proxy interface {
	// Listen starts the proxy server in the background. It returns once the
	// address is bound.
	Listen() error

	// Stop stops the proxy server and waits for the requests in progress.
	Stop() error

	// GetAddr returns the address the server is listening to, or nil.
	GetAddr() net.Addr

	// RegisterHandler registers a new handler for the path and the methods. A
	// path can contain variables like /elections/{address}.
	RegisterHandler(path string, handler http.HandlerFunc, methods ...string)
}
