// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/larder/internal/metrics"
)

type recordingEvictor struct {
	mu      sync.Mutex
	deleted []string
	once    sync.Once
	done    chan struct{}
}

func (r *recordingEvictor) Delete(code string) {
	r.mu.Lock()
	r.deleted = append(r.deleted, code)
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func startBus(t *testing.T, evictor ShortLinkEvictor) *Bus {
	t.Helper()
	cfg := DefaultBusConfig()
	cfg.CloseTimeout = time.Second
	bus := NewBus(cfg, evictor)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- bus.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-served:
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after cancel")
		}
		if err := bus.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return bus
}

func TestBus_EvictsShortLinkOnRecipeDeleted(t *testing.T) {
	evictor := &recordingEvictor{done: make(chan struct{})}
	bus := startBus(t, evictor)

	before := testutil.ToFloat64(metrics.DomainEvents.WithLabelValues(RecipeDeleted))

	bus.Publish(context.Background(), New(RecipeDeleted, 1).WithRecipe(7, "Ab3dEf9h"))

	select {
	case <-evictor.done:
	case <-time.After(5 * time.Second):
		t.Fatal("short link was not evicted")
	}
	evictor.mu.Lock()
	if len(evictor.deleted) != 1 || evictor.deleted[0] != "Ab3dEf9h" {
		t.Errorf("deleted = %v", evictor.deleted)
	}
	evictor.mu.Unlock()

	deadline := time.Now().Add(5 * time.Second)
	for testutil.ToFloat64(metrics.DomainEvents.WithLabelValues(RecipeDeleted)) < before+1 {
		if time.Now().After(deadline) {
			t.Fatal("domain_events_total was not incremented")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBus_StringAndDiscard(t *testing.T) {
	bus := NewBus(DefaultBusConfig(), nil)
	if bus.String() != "event-bus" {
		t.Errorf("String() = %q", bus.String())
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	// Must not panic.
	Discard.Publish(context.Background(), New(RecipeCreated, 1))
}

func TestPublish_AfterCloseCountsError(t *testing.T) {
	bus := NewBus(DefaultBusConfig(), nil)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}

	before := testutil.ToFloat64(metrics.DomainEventPublishErrors.WithLabelValues(FollowCreated))
	bus.Publish(context.Background(), New(FollowCreated, 1).WithAuthor(2))
	after := testutil.ToFloat64(metrics.DomainEventPublishErrors.WithLabelValues(FollowCreated))
	if after != before+1 {
		t.Errorf("publish errors = %v, want %v", after, before+1)
	}
}
