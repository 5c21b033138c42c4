package app

import (
	"context"
	"fmt"

	"github.com/gazexpress/gazexpress/internal/app/services/cart"
	"github.com/gazexpress/gazexpress/internal/app/services/checkout"
	"github.com/gazexpress/gazexpress/internal/app/services/session"
	"github.com/gazexpress/gazexpress/internal/app/storage"
	"github.com/gazexpress/gazexpress/internal/app/storage/memory"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

// Backend is the remote API surface the client core depends on. The
// apiclient package provides the production implementation.
type Backend interface {
	session.API
	checkout.OrdersAPI
}

// Stores encapsulates persistence dependencies. A nil store defaults to the
// in-memory implementation.
type Stores struct {
	KV storage.KV
}

// Application ties the client-core services together. There is exactly one
// cart and one session per running application instance; the UI layer
// receives them by reference from here instead of through global state.
type Application struct {
	log *logger.Logger

	Cart     *cart.Service
	Session  *session.Service
	Checkout *checkout.Service
}

// New builds a fully initialised application against the given backend.
func New(backend Backend, stores Stores, log *logger.Logger) (*Application, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if log == nil {
		log = logger.NewDefault("app")
	}
	if stores.KV == nil {
		stores.KV = memory.New()
	}

	cartSvc := cart.New(stores.KV, log)
	sessionSvc := session.New(backend, stores.KV, log)
	checkoutSvc := checkout.New(backend, cartSvc, sessionSvc, log)

	return &Application{
		log:      log,
		Cart:     cartSvc,
		Session:  sessionSvc,
		Checkout: checkoutSvc,
	}, nil
}

// Load hydrates both aggregates from storage. It must complete before the
// first UI read; neither load can fail the caller.
func (a *Application) Load(ctx context.Context) {
	a.Session.Load(ctx)
	a.Cart.Load(ctx)
}
