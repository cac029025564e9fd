// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package supervisor runs the server's long-lived components under a suture v4
supervisor tree.

	larder
	├── data-layer
	│   ├── cache-cleanup:short_links
	│   └── token-revocation-cleanup
	├── messaging-layer
	│   └── event-bus                watermill router
	└── api-layer
	    └── http-server

Each layer is its own supervisor, so a service that keeps failing backs off
inside its layer while the others keep running. Supervisor events (start,
failure, backoff) are logged through sutureslog on top of the zerolog slog
adapter.

Usage:

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(shortLinks)
	tree.AddMessagingService(bus)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err := tree.Serve(ctx)

Serve returns once ctx is canceled and every service has stopped, or
ShutdownTimeout has passed; UnstoppedServiceReport lists the stragglers.
*/
package supervisor
