// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package main is the entry point for the Larder server.

Larder is a recipe sharing backend: users publish recipes built from a
shared ingredient catalog, tag them, follow authors, keep favorites, and
collect recipes into a shopping cart that can be downloaded as an
aggregated ingredient list.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("larder")
	├── DataSupervisor ("data-layer")
	│   ├── cache-cleanup:short_links
	│   └── token-revocation-cleanup
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-bus
	└── APISupervisor ("api-layer")
	    └── http-server

Initialization order:

 1. Environment: optional .env file (godotenv)
 2. Configuration: Koanf v2 with defaults, config file and environment
 3. Logging: zerolog with JSON or console output
 4. Database: DuckDB with versioned migrations
 5. Authentication: JWT signing and the token revocation store
 6. Authorization: Casbin enforcer with the embedded model and policy
 7. Media: image store for recipe images and avatars
 8. Event bus: Watermill GoChannel for domain events
 9. HTTP: Chi router with middleware stack
 10. Supervisor tree

# Configuration

Layered sources, highest priority wins:
  - Environment variables (JWT_SECRET, HTTP_PORT, DUCKDB_PATH, ...)
  - Config file (config.yaml, or CONFIG_PATH)
  - Built-in defaults

JWT_SECRET is required and must be at least 32 characters.

# Signal Handling

On SIGINT or SIGTERM the supervisor tree is canceled. The HTTP server
drains in-flight requests for up to 10 seconds, the event bus is closed,
the revocation store is closed, and DuckDB is checkpointed before the
database is closed.

# Example Usage

	export JWT_SECRET=$(openssl rand -base64 32)
	export DUCKDB_PATH=./larder.duckdb
	export MEDIA_ROOT=./media
	./larder-server

Load the tag and ingredient catalogs with the importcsv command. Recipes
need at least one tag, so tags must be loaded before the first recipe:

	./importcsv tags ./data
	./importcsv ./data
*/
package main
