package app

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/gazexpress/gazexpress/internal/app/domain/catalog"
	"github.com/gazexpress/gazexpress/internal/app/domain/order"
	"github.com/gazexpress/gazexpress/internal/app/domain/user"
	"github.com/gazexpress/gazexpress/internal/app/storage"
	"github.com/gazexpress/gazexpress/internal/app/storage/memory"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

func testLogger() *logger.Logger {
	log := logger.NewDefault("app-test")
	log.SetOutput(io.Discard)
	return log
}

type fakeBackend struct {
	commandes int
	paiements int
}

func (f *fakeBackend) Login(context.Context, string, string) (user.TokenPair, error) {
	return user.TokenPair{Access: "access-1", Refresh: "refresh-1"}, nil
}

func (f *fakeBackend) Profile(context.Context, string) (user.User, error) {
	return user.User{ID: "u-1", Email: "awa@example.ci", Role: user.RoleClient}, nil
}

func (f *fakeBackend) Register(context.Context, user.Registration) error { return nil }

func (f *fakeBackend) Refresh(context.Context, string) (string, error) { return "access-2", nil }

func (f *fakeBackend) CreateCommande(_ context.Context, _ string, nc order.NewCommande) (order.Commande, error) {
	f.commandes++
	return order.Commande{
		ID:           int64(f.commandes),
		Quantite:     nc.Quantite,
		MontantTotal: 6500*nc.Quantite + nc.FraisLivraison,
		Statut:       order.StatusEnAttente,
	}, nil
}

func (f *fakeBackend) CreatePaiement(_ context.Context, _ string, p order.Paiement) (order.Paiement, error) {
	f.paiements++
	return p, nil
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(nil, Stores{}, testLogger()); err == nil {
		t.Fatal("expected error for nil backend")
	}
}

func TestLoadHydratesBothAggregates(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	tokens, _ := json.Marshal(user.TokenPair{Access: "access-1", Refresh: "refresh-1"})
	u, _ := json.Marshal(user.User{ID: "u-1", Role: user.RoleClient})
	lines := `[{"bouteille":{"id":1,"nom_commercial":"Total Gaz 12kg","prix":6500},"quantite":2}]`
	for key, value := range map[string]string{
		storage.TokensKey: string(tokens),
		storage.UserKey:   string(u),
		storage.CartKey:   lines,
	} {
		if err := store.Set(ctx, key, value); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}

	application, err := New(&fakeBackend{}, Stores{KV: store}, testLogger())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	application.Load(ctx)

	if !application.Session.IsAuthenticated() {
		t.Fatal("expected authenticated session after load")
	}
	if got := application.Cart.ItemCount(); got != 2 {
		t.Fatalf("expected 2 items in cart after load, got %d", got)
	}
}

func TestFullPurchaseFlow(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}

	application, err := New(backend, Stores{}, testLogger())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	application.Load(ctx)

	if err := application.Session.Login(ctx, "awa@example.ci", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	application.Cart.AddItem(ctx, catalog.Bouteille{ID: 1, NomCommercial: "Total Gaz 12kg", Prix: 6500}, 2)
	application.Cart.SetDeliveryZone(catalog.Zone{ID: 7, Nom: "Cocody", FraisLivraison: 1500})
	application.Cart.SetDeliveryAddress("Rue des Jardins 14")

	placed, err := application.Checkout.PlaceOrder(ctx, order.MethodMobileMoney, "")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if len(placed) != 1 || backend.paiements != 1 {
		t.Fatalf("expected 1 commande and 1 paiement, got %d and %d", len(placed), backend.paiements)
	}
	if got := application.Cart.ItemCount(); got != 0 {
		t.Fatalf("expected empty cart after checkout, got %d items", got)
	}
}
