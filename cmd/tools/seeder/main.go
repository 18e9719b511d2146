package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/storefront-engine/internal/auth"
	"github.com/noah-isme/storefront-engine/internal/database"
	"github.com/noah-isme/storefront-engine/internal/discount"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/product"
	"github.com/noah-isme/storefront-engine/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if err := database.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	st := store.New(pool)
	sellerID := os.Getenv("SEED_SELLER_ID")
	if sellerID == "" {
		sellerID = uuid.NewString()
	}
	log.Printf("Using seller ID: %s", sellerID)

	shop, err := st.CreateShop(ctx, sellerID, "Manila Threads")
	if err != nil {
		log.Fatalf("Failed to seed shop: %v", err)
	}

	products := seedCatalog(ctx, st, sellerID, shop)
	seedDiscounts(ctx, st, sellerID, products)
	printToken(sellerID)

	log.Println("Seeding completed successfully!")
}

func price(s string) *money.Money {
	m := money.MustString(s)
	return &m
}

func seedCatalog(ctx context.Context, st *store.Store, sellerID string, shop product.Shop) []product.Product {
	catalog := []product.Product{
		{
			Name:          "Linen Polo",
			BasePrice:     money.MustString("500.00"),
			LowStockAlert: 3,
			Variations: []product.Variation{{
				Name:               "Size",
				HasIndividualStock: true,
				Options: []product.Option{
					{Name: "Size", Value: "S", SKU: "POLO-S", Stock: 12, LowStockAlert: 3},
					{Name: "Size", Value: "M", SKU: "POLO-M", Stock: 3, LowStockAlert: 3},
					{Name: "Size", Value: "XL", SKU: "POLO-XL", Price: price("800.00"), Stock: 5, LowStockAlert: 2},
				},
			}},
		},
		{
			Name:           "Rattan Tote",
			BasePrice:      money.MustString("1250.00"),
			CompareAtPrice: price("1500.00"),
			Quantity:       20,
			LowStockAlert:  5,
		},
		{
			Name:          "Barako Coffee 250g",
			BasePrice:     money.MustString("320.00"),
			LowStockAlert: 4,
			Variations: []product.Variation{{
				Name:          "Grind",
				Quantity:      40,
				LowStockAlert: 10,
				Options: []product.Option{
					{Name: "Grind", Value: "Whole bean"},
					{Name: "Grind", Value: "Fine"},
				},
			}},
		},
		{
			Name:          "Capiz Lamp",
			BasePrice:     money.MustString("2100.00"),
			Quantity:      2,
			LowStockAlert: 2,
		},
	}

	fmt.Println("Seeding Products...")
	out := make([]product.Product, 0, len(catalog))
	for _, p := range catalog {
		p.SellerID = sellerID
		p.Shop = &shop
		p.Status = product.StatusActive
		created, err := st.CreateProduct(ctx, p)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
			continue
		}
		out = append(out, created)
	}
	return out
}

func seedDiscounts(ctx context.Context, st *store.Store, sellerID string, products []product.Product) {
	if len(products) < 2 {
		return
	}
	now := time.Now().UTC()
	windows := []discount.Window{
		{Name: "Payday Sale", Percentage: 20, Start: now.Add(-time.Hour), End: now.Add(72 * time.Hour), ProductIDs: []string{products[0].ID}},
		{Name: "Holiday Preview", Percentage: 15, Start: now.Add(48 * time.Hour), End: now.Add(96 * time.Hour), ProductIDs: []string{products[1].ID}},
	}
	fmt.Println("Seeding Discounts...")
	for _, w := range windows {
		w.SellerID = sellerID
		if err := w.Validate(); err != nil {
			log.Printf("Invalid discount %s: %v", w.Name, err)
			continue
		}
		if _, err := st.CreateDiscount(ctx, w); err != nil {
			log.Printf("Failed to seed discount %s: %v", w.Name, err)
		}
	}
}

func printToken(sellerID string) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return
	}
	svc, err := auth.NewService(auth.Config{
		Secret:         secret,
		Issuer:         os.Getenv("JWT_ISSUER"),
		Audience:       os.Getenv("JWT_AUDIENCE"),
		AccessTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		log.Printf("Failed to build token service: %v", err)
		return
	}
	token, exp, err := svc.Issue(sellerID, auth.RoleSeller)
	if err != nil {
		log.Printf("Failed to issue seller token: %v", err)
		return
	}
	fmt.Printf("Seller token (expires %s):\n%s\n", exp.Format(time.RFC3339), token)
}
