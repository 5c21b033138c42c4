// Package catalog holds the product-side domain model: gas bottles, the
// stations that sell them and the delivery zones they ship to. The backend
// catalogue service is authoritative for all of it; these types mirror its
// wire format.
package catalog

// BottleSize is the fixed size category of a gas bottle.
type BottleSize string

const (
	Size6kg   BottleSize = "6kg"
	Size12kg  BottleSize = "12kg"
	Size15kg  BottleSize = "15kg"
	SizeOther BottleSize = "autre"
)

// Bouteille is a gas bottle listed by a station. Prices are integers in the
// smallest currency unit. Stock and Disponible are independently settable:
// the catalogue service owns their consistency, not this client.
type Bouteille struct {
	ID            int64      `json:"id"`
	NomCommercial string     `json:"nom_commercial"`
	Type          BottleSize `json:"type"`
	Marque        string     `json:"marque"`
	Prix          int64      `json:"prix"`
	Stock         int64      `json:"stock"`
	Description   string     `json:"description,omitempty"`
	CodeProduit   string     `json:"code_produit,omitempty"`
	Station       int64      `json:"station"`
	StationNom    string     `json:"station_nom"`
	Disponible    bool       `json:"disponible"`
}

// Zone is a delivery-fee bracket selectable at checkout. DelaiEstime is a
// display label, never machine-parsed.
type Zone struct {
	ID             int64  `json:"id"`
	Nom            string `json:"nom"`
	FraisLivraison int64  `json:"frais_livraison"`
	DelaiEstime    string `json:"delai_estime"`
	IsActive       bool   `json:"is_active"`
}

// Station is a vendor point of sale.
type Station struct {
	ID        int64  `json:"id"`
	Nom       string `json:"nom"`
	Adresse   string `json:"adresse"`
	Telephone string `json:"telephone"`
	Email     string `json:"email,omitempty"`
	Horaires  string `json:"horaires,omitempty"`
	IsActive  bool   `json:"is_active"`
}
