// Command gazexpress is a development console for the client core. It drives
// the cart and session services against a live backend, persisting state
// through the configured key-value store so flows can span invocations.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/gazexpress/gazexpress/internal/apiclient"
	"github.com/gazexpress/gazexpress/internal/app"
	"github.com/gazexpress/gazexpress/internal/app/domain/order"
	"github.com/gazexpress/gazexpress/internal/app/domain/user"
	"github.com/gazexpress/gazexpress/internal/app/storage"
	"github.com/gazexpress/gazexpress/internal/app/storage/file"
	"github.com/gazexpress/gazexpress/internal/app/storage/memory"
	"github.com/gazexpress/gazexpress/internal/app/storage/postgres"
	"github.com/gazexpress/gazexpress/internal/app/storage/redis"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

func main() {
	var (
		backendURL  = flag.String("backend", envOr("BACKEND_URL", "http://localhost:8000"), "Backend base URL")
		storageKind = flag.String("storage", envOr("STORAGE_BACKEND", "file"), "Storage backend: memory|file|redis|postgres")
		storagePath = flag.String("storage-path", envOr("STORAGE_FILE_PATH", "gazexpress.json"), "Path for the file storage backend")
		redisAddr   = flag.String("redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address for the redis storage backend")
		redisPass   = flag.String("redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
		postgresDSN = flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "Postgres DSN for the postgres storage backend")
		action      = flag.String("action", "status", "Action: status|register|login|logout|catalog|zones|cart-add|cart-remove|cart-show|cart-clear|checkout|commandes")
		email       = flag.String("email", "", "Email for login/register")
		password    = flag.String("password", "", "Password for login/register")
		nom         = flag.String("nom", "", "Last name for register")
		prenom      = flag.String("prenom", "", "First name for register")
		telephone   = flag.String("telephone", "", "Phone number for register")
		bottleID    = flag.Int64("bouteille", 0, "Bottle id for cart-add/cart-remove")
		quantity    = flag.Int64("quantite", 1, "Quantity for cart-add")
		zoneID      = flag.Int64("zone", 0, "Delivery zone id for checkout")
		address     = flag.String("adresse", "", "Delivery address for checkout")
		payment     = flag.String("paiement", string(order.MethodEspeces), "Payment method: mobile_money|carte|especes")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	lg := logger.New(logger.LoggingConfig{Level: level, Format: "text"}).WithField("component", "console")

	kv, closeKV, err := openStorage(ctx, *storageKind, *storagePath, *redisAddr, *redisPass, *postgresDSN)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer closeKV()

	client, err := apiclient.New(nil, *backendURL, lg)
	if err != nil {
		log.Fatalf("api client: %v", err)
	}

	application, err := app.New(client, app.Stores{KV: kv}, lg)
	if err != nil {
		log.Fatalf("application: %v", err)
	}
	application.Load(ctx)

	if err := run(ctx, application, client, options{
		action:    *action,
		email:     *email,
		password:  *password,
		nom:       *nom,
		prenom:    *prenom,
		telephone: *telephone,
		bottleID:  *bottleID,
		quantity:  *quantity,
		zoneID:    *zoneID,
		address:   *address,
		payment:   order.PaymentMethod(*payment),
	}); err != nil {
		log.Fatalf("%s: %v", *action, err)
	}
}

type options struct {
	action    string
	email     string
	password  string
	nom       string
	prenom    string
	telephone string
	bottleID  int64
	quantity  int64
	zoneID    int64
	address   string
	payment   order.PaymentMethod
}

func run(ctx context.Context, application *app.Application, client *apiclient.Client, opts options) error {
	switch opts.action {
	case "status":
		if u := application.Session.User(); u != nil {
			fmt.Printf("logged in as %s %s <%s>\n", u.Prenom, u.Nom, u.Email)
		} else {
			fmt.Println("not logged in")
		}
		printCart(application)
		return nil

	case "register":
		if opts.email == "" || opts.password == "" {
			return fmt.Errorf("-email and -password required")
		}
		return application.Session.Register(ctx, user.Registration{
			Email:     opts.email,
			Password:  opts.password,
			Nom:       opts.nom,
			Prenom:    opts.prenom,
			Telephone: opts.telephone,
			Role:      user.RoleClient,
		})

	case "login":
		if opts.email == "" || opts.password == "" {
			return fmt.Errorf("-email and -password required")
		}
		if err := application.Session.Login(ctx, opts.email, opts.password); err != nil {
			return err
		}
		u := application.Session.User()
		fmt.Printf("logged in as %s %s <%s>\n", u.Prenom, u.Nom, u.Email)
		return nil

	case "logout":
		application.Session.Logout(ctx)
		fmt.Println("logged out")
		return nil

	case "catalog":
		bouteilles, err := client.Bouteilles(ctx, application.Session.AccessToken())
		if err != nil {
			return err
		}
		for _, b := range bouteilles {
			avail := "indisponible"
			if b.Disponible {
				avail = fmt.Sprintf("stock %d", b.Stock)
			}
			fmt.Printf("%4d  %-30s %6s  %8d FCFA  %s\n", b.ID, b.NomCommercial, b.Type, b.Prix, avail)
		}
		return nil

	case "zones":
		zones, err := client.Zones(ctx, application.Session.AccessToken())
		if err != nil {
			return err
		}
		for _, z := range zones {
			fmt.Printf("%4d  %-30s livraison %6d FCFA  %s\n", z.ID, z.Nom, z.FraisLivraison, z.DelaiEstime)
		}
		return nil

	case "cart-add":
		if opts.bottleID == 0 {
			return fmt.Errorf("-bouteille required")
		}
		bouteilles, err := client.Bouteilles(ctx, application.Session.AccessToken())
		if err != nil {
			return err
		}
		for _, b := range bouteilles {
			if b.ID == opts.bottleID {
				application.Cart.AddItem(ctx, b, opts.quantity)
				printCart(application)
				return nil
			}
		}
		return fmt.Errorf("bouteille %d not found in catalog", opts.bottleID)

	case "cart-remove":
		if opts.bottleID == 0 {
			return fmt.Errorf("-bouteille required")
		}
		application.Cart.RemoveItem(ctx, opts.bottleID)
		printCart(application)
		return nil

	case "cart-show":
		printCart(application)
		return nil

	case "cart-clear":
		application.Cart.Clear(ctx)
		fmt.Println("cart cleared")
		return nil

	case "checkout":
		if opts.address != "" {
			application.Cart.SetDeliveryAddress(opts.address)
		}
		if opts.zoneID != 0 {
			zones, err := client.Zones(ctx, application.Session.AccessToken())
			if err != nil {
				return err
			}
			found := false
			for _, z := range zones {
				if z.ID == opts.zoneID {
					application.Cart.SetDeliveryZone(z)
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("zone %d not found", opts.zoneID)
			}
		}
		placed, err := application.Checkout.PlaceOrder(ctx, opts.payment, "")
		if err != nil {
			return err
		}
		for _, cmd := range placed {
			fmt.Printf("commande %d: %d x %s, total %d FCFA (%s)\n",
				cmd.ID, cmd.Quantite, cmd.Bouteille.NomCommercial, cmd.MontantTotal, cmd.Statut)
		}
		return nil

	case "commandes":
		cmds, err := client.Commandes(ctx, application.Session.AccessToken())
		if err != nil {
			return err
		}
		for _, cmd := range cmds {
			fmt.Printf("%4d  %s  %d x %-30s %8d FCFA  %s\n",
				cmd.ID, cmd.DateCommande.Format("2006-01-02 15:04"),
				cmd.Quantite, cmd.Bouteille.NomCommercial, cmd.MontantTotal, cmd.Statut)
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", opts.action)
	}
}

func printCart(application *app.Application) {
	lines := application.Cart.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, l := range lines {
		fmt.Printf("%4d  %-30s x%-3d %8d FCFA\n",
			l.Bouteille.ID, l.Bouteille.NomCommercial, l.Quantite, l.Bouteille.Prix*l.Quantite)
	}
	fmt.Printf("sous-total %d FCFA, livraison %d FCFA, total %d FCFA (%d articles)\n",
		application.Cart.Subtotal(), application.Cart.DeliveryFee(),
		application.Cart.Total(), application.Cart.ItemCount())
}

func openStorage(ctx context.Context, kind, path, redisAddr, redisPass, dsn string) (storage.KV, func(), error) {
	switch strings.ToLower(kind) {
	case "memory":
		return memory.New(), func() {}, nil
	case "file":
		st, err := file.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	case "redis":
		st, err := redis.New(ctx, redisAddr, redisPass, "")
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case "postgres":
		if dsn == "" {
			return nil, nil, fmt.Errorf("-postgres-dsn required for postgres storage")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		st := postgres.New(db)
		if err := st.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return st, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
