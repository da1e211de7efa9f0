// Package jassistant is the root of the Jassistant media management
// service. This repository currently contains the layered caching
// subsystem that sits in front of the service's expensive, repeatable
// computations: database query results, derived image artifacts, and
// configuration snapshots.
//
// # Architecture
//
// The cache is organized as independent tiers composed by a registry:
//
//	┌─────────────────────────────────────┐
//	│           Registry                  │  Named cache instances,
//	│ (memory, disk, query, artifact,     │  admin surface, janitor
//	│  snapshot)                          │
//	└─────────────────────────────────────┘
//	           ↓ composes
//	┌─────────────────────────────────────┐
//	│          QueryCache                 │  Read-through orchestration,
//	│   (memory first, disk second)       │  promotion, write-through
//	└─────────────────────────────────────┘
//	           ↓ delegates to
//	┌──────────────────┐ ┌────────────────┐
//	│    LRUCache      │ │   DiskCache    │
//	│ (bounded, O(1))  │ │ (files + TTL)  │
//	└──────────────────┘ └────────────────┘
//
// The cache never computes missing values and never fails a caller: I/O
// and decoding errors degrade into cache misses, logged but not raised.
// Producers (the database layer, the image pipeline, the configuration
// loader) live outside this module and store their results back through
// the cache's Set operations.
//
// # Packages
//
//   - pkg/cache: the caching subsystem (LRU, disk, read-through, registry)
//   - errors: classified error handling shared across the service
//   - metric: Prometheus metrics registry and operator endpoint
//   - cmd/cachectl: operator CLI for stats, clear and cleanup
package jassistant
