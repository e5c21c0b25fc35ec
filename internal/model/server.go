package model

import (
	"context"
	"net"
)

// SecurityLayer opens listeners, with or without TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server managed by main. Start blocks until the
// server stops and returns nil after a clean Stop.
type Server interface {
	Start(securityLayer SecurityLayer) error
	// Stop drains in-flight work until ctx is done.
	Stop(ctx context.Context) error
	Address() string
}
