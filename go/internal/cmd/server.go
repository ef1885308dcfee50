package main

import (
	"net/http"
	"time"
)

// setupServer builds the admin HTTP server. The surface is unauthenticated
// and meant for an internal network only.
func setupServer(services *Services, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           services.Admin.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
