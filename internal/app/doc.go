// Package app composes the GazExpress client core. It wires the cart and
// session aggregates to a storage backend and the remote API, and owns the
// startup hydration order.
//
//	internal/app/
//	├── application.go      # Composition and startup hydration
//	├── domain/             # Domain models (pure data structures)
//	│   ├── catalog/        # Bouteilles, zones, stations
//	│   ├── cart/           # Cart lines and coordinates
//	│   ├── order/          # Commandes and paiements
//	│   └── user/           # Users, roles, token pairs
//	├── storage/            # Key-value store interface and backends
//	│   ├── memory/         # In-memory implementation for tests
//	│   ├── file/           # Single-file local store
//	│   ├── redis/          # Redis backend
//	│   └── postgres/       # PostgreSQL backend
//	└── services/           # Aggregate logic
//	    ├── cart/           # Cart mutation, pricing, persistence
//	    ├── session/        # Auth state and token lifecycle
//	    └── checkout/       # Cart-to-commandes placement flow
//
// Business-authoritative state (orders, users, payments, catalogue,
// delivery assignment) lives behind the remote API; nothing here is more
// than a client-side view of it plus the locally owned cart.
package app
