// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

// Package services adapts server components to suture.Service.
//
// Most long-lived components in this module already implement
// Serve(ctx) error and String() and are added to the tree directly (the
// cache janitor, the revocation cleanup, the event bus). This package holds
// the wrappers for components with a different lifecycle, currently the
// net/http server's ListenAndServe/Shutdown pair.
package services
