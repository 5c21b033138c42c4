// Package order holds the order and payment domain model. Order-status
// transitions, delivery assignment and payment processing are owned by the
// backend; this client only creates records and reads them back.
package order

import (
	"time"

	"github.com/gazexpress/gazexpress/internal/app/domain/cart"
	"github.com/gazexpress/gazexpress/internal/app/domain/catalog"
	"github.com/gazexpress/gazexpress/internal/app/domain/user"
)

// Status is the backend-owned lifecycle state of a commande.
type Status string

const (
	StatusEnAttente Status = "en_attente"
	StatusAssignee  Status = "assignee"
	StatusEnCours   Status = "en_cours"
	StatusLivree    Status = "livree"
	StatusAnnulee   Status = "annulee"
)

// Commande is a placed order for a single bouteille line. Carts with several
// lines produce several commandes.
type Commande struct {
	ID               int64             `json:"id"`
	Client           user.User         `json:"client"`
	Bouteille        catalog.Bouteille `json:"bouteille"`
	Quantite         int64             `json:"quantite"`
	PrixTotal        int64             `json:"prix_total"`
	FraisLivraison   int64             `json:"frais_livraison"`
	MontantTotal     int64             `json:"montant_total"`
	AdresseLivraison string            `json:"adresse_livraison"`
	Coordonnees      *cart.Coordinates `json:"coordonnees_livraison,omitempty"`
	Statut           Status            `json:"statut"`
	Notes            string            `json:"notes,omitempty"`
	DateCommande     time.Time         `json:"date_commande"`
	DateLivraison    *time.Time        `json:"date_livraison,omitempty"`
}

// NewCommande is the creation payload sent to the backend. Totals are
// recomputed server side; the client sends only the inputs.
type NewCommande struct {
	Bouteille        int64             `json:"bouteille"`
	Quantite         int64             `json:"quantite"`
	FraisLivraison   int64             `json:"frais_livraison"`
	AdresseLivraison string            `json:"adresse_livraison"`
	Coordonnees      *cart.Coordinates `json:"coordonnees_livraison,omitempty"`
	Notes            string            `json:"notes,omitempty"`
}

// PaymentMethod enumerates the supported payment channels.
type PaymentMethod string

const (
	MethodMobileMoney PaymentMethod = "mobile_money"
	MethodCarte       PaymentMethod = "carte"
	MethodEspeces     PaymentMethod = "especes"
)

// PaymentStatus is the backend-owned payment state.
type PaymentStatus string

const (
	PaymentEnAttente PaymentStatus = "en_attente"
	PaymentConfirme  PaymentStatus = "confirme"
	PaymentEchoue    PaymentStatus = "echoue"
	PaymentRembourse PaymentStatus = "rembourse"
)

// Paiement records a payment against a commande. Reference is generated
// client side and must be unique.
type Paiement struct {
	ID           int64         `json:"id"`
	Commande     int64         `json:"commande"`
	Montant      int64         `json:"montant"`
	Methode      PaymentMethod `json:"methode"`
	Statut       PaymentStatus `json:"statut"`
	Reference    string        `json:"reference"`
	DatePaiement time.Time     `json:"date_paiement"`
}
