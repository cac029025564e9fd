// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/larder/internal/metrics"
	"github.com/tomtom215/larder/internal/models"
)

// Health reports whether the database answers a ping. It answers 503 when
// it does not, so load balancers can take the instance out of rotation.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := models.HealthStatus{
		Status:        "healthy",
		Database:      "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	status := http.StatusOK
	metrics.UpdateUptime(h.startTime)

	if err := h.db.Ping(r.Context()); err != nil {
		health.Status = "unhealthy"
		health.Database = "disconnected"
		status = http.StatusServiceUnavailable
		respondErrorLog(r, codeUnavailable, err)
	}

	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, status, health)
}
