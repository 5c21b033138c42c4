// Package checkout turns the cart into backend orders: one commande per
// cart line, a payment record per commande, then a cart clear.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gazexpress/gazexpress/internal/app/domain/order"
	"github.com/gazexpress/gazexpress/internal/app/services/cart"
	"github.com/gazexpress/gazexpress/internal/app/services/session"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

// ErrNotAuthenticated is returned when checkout runs without a session.
var ErrNotAuthenticated = errors.New("checkout requires an authenticated session")

// ErrCartNotReady is returned when the cart is empty or missing a delivery
// zone or address.
var ErrCartNotReady = errors.New("cart is empty or delivery details are missing")

// OrdersAPI is the slice of the backend checkout depends on.
type OrdersAPI interface {
	CreateCommande(ctx context.Context, access string, nc order.NewCommande) (order.Commande, error)
	CreatePaiement(ctx context.Context, access string, p order.Paiement) (order.Paiement, error)
}

// Service coordinates order placement across the cart, the session and the
// backend.
type Service struct {
	api     OrdersAPI
	cart    *cart.Service
	session *session.Service
	log     *logger.Logger
}

// New constructs a checkout service.
func New(api OrdersAPI, cartSvc *cart.Service, sessionSvc *session.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("checkout")
	}
	return &Service{
		api:     api,
		cart:    cartSvc,
		session: sessionSvc,
		log:     log,
	}
}

// PlaceOrder creates one commande per cart line and records a payment for
// each. The zone's flat fee is charged once, on the first commande. The cart
// is cleared only when every order and payment was accepted; on a partial
// failure the cart is left intact and the error reports how far placement
// got -- the accepted orders exist server side.
func (s *Service) PlaceOrder(ctx context.Context, method order.PaymentMethod, notes string) ([]order.Commande, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	lines := s.cart.Lines()
	zone := s.cart.SelectedZone()
	address := s.cart.DeliveryAddress()
	if len(lines) == 0 || zone == nil || address == "" {
		return nil, ErrCartNotReady
	}
	coords := s.cart.DeliveryCoordinates()
	access := s.session.AccessToken()

	placed := make([]order.Commande, 0, len(lines))
	for i, line := range lines {
		nc := order.NewCommande{
			Bouteille:        line.Bouteille.ID,
			Quantite:         line.Quantite,
			AdresseLivraison: address,
			Coordonnees:      coords,
			Notes:            notes,
		}
		if i == 0 {
			nc.FraisLivraison = zone.FraisLivraison
		}

		cmd, err := s.api.CreateCommande(ctx, access, nc)
		if err != nil {
			s.log.WithError(err).
				WithField("bouteille_id", line.Bouteille.ID).
				Warn("create commande failed")
			return placed, fmt.Errorf("place order for bouteille %d (%d of %d placed): %w",
				line.Bouteille.ID, len(placed), len(lines), err)
		}

		paiement := order.Paiement{
			Commande:  cmd.ID,
			Montant:   cmd.MontantTotal,
			Methode:   method,
			Statut:    order.PaymentEnAttente,
			Reference: uuid.NewString(),
		}
		if _, err := s.api.CreatePaiement(ctx, access, paiement); err != nil {
			s.log.WithError(err).
				WithField("commande_id", cmd.ID).
				Warn("create paiement failed")
			return placed, fmt.Errorf("record payment for commande %d: %w", cmd.ID, err)
		}

		placed = append(placed, cmd)
	}

	s.cart.Clear(ctx)
	s.log.WithField("commandes", len(placed)).
		WithField("methode", method).
		Info("order placed")
	return placed, nil
}
