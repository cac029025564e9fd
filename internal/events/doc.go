// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

/*
Package events carries domain events over an in-process Watermill pub/sub.

Handlers in the API publish an Event after a write commits (a recipe is
created, a favorite removed, a user followed, ...). Each event type is its
own topic on a gochannel pub/sub. A Watermill router, run by the supervisor
through Bus.Serve, consumes them:

  - every event increments domain_events_total{event_type}
  - recipe.deleted evicts the recipe's short link from the resolution cache

Publishing never fails a request: errors are logged and counted in
domain_event_publish_errors_total.

The pub/sub is not persistent. Events published while the router is
restarting are dropped, which only affects metrics and cache eviction.
*/
package events
