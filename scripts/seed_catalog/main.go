// Command seed_catalog fills an empty catalogue with sample abayas and maxi dresses
// for local development.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"abaya-store/internal/config"
	"abaya-store/internal/database"
	"abaya-store/internal/model"
	"abaya-store/internal/repository"
	"abaya-store/internal/service"
	"abaya-store/internal/storage"

	"github.com/shopspring/decimal"
)

type sample struct {
	name     string
	category string
	price    int64
	original int64
	stock    int
	colors   []string
	featured bool
	sale     bool
}

var samples = []sample{
	{"Classic Nida Abaya", model.CategoryAbayas, 4500, 0, 12, []string{"Black"}, true, false},
	{"Embroidered Cuff Abaya", model.CategoryAbayas, 6200, 7500, 6, []string{"Black", "Navy"}, false, true},
	{"Open Front Kimono Abaya", model.CategoryAbayas, 5400, 0, 9, []string{"Beige", "Olive"}, true, false},
	{"Pleated Chiffon Maxi", model.CategoryMaxiDresses, 7800, 0, 4, []string{"Dusty Pink"}, false, false},
	{"Tiered Cotton Maxi", model.CategoryMaxiDresses, 3900, 4800, 0, []string{"White", "Sage"}, false, true},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	images, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.LocalBaseURL, logger)
	if err != nil {
		log.Fatalf("failed to open image store: %v", err)
	}
	products := service.NewProductService(repository.NewProductRepository(pool, logger), images, logger)

	existing, err := products.List(ctx, model.ProductFilter{Limit: 1})
	if err != nil {
		log.Fatalf("failed to inspect catalogue: %v", err)
	}
	if existing.Total > 0 {
		fmt.Printf("Catalogue already has %d products, nothing to do\n", existing.Total)
		return
	}

	for _, s := range samples {
		name, category := s.name, s.category
		description := s.name + " in breathable fabric with a relaxed fit."
		price := decimal.NewFromInt(s.price)
		stock := s.stock
		featured, sale, isNew := s.featured, s.sale, true

		input := &model.ProductInput{
			Name:        &name,
			Description: &description,
			Category:    &category,
			Price:       &price,
			Images:      []string{cfg.Storage.LocalBaseURL + "/placeholder.jpg"},
			Sizes:       []string{"52", "54", "56", "58"},
			Colors:      s.colors,
			Stock:       &stock,
			Featured:    &featured,
			Sale:        &sale,
			IsNew:       &isNew,
		}
		if s.original > 0 {
			original := decimal.NewFromInt(s.original)
			input.OriginalPrice = &original
		}

		p, err := products.Create(ctx, input)
		if err != nil {
			log.Fatalf("failed to create %s: %v", s.name, err)
		}
		fmt.Printf("Created %s (%s)\n", p.Name, p.ID)
	}
}
