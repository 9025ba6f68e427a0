// Command seed fills the card catalog from a paginated character API. Safe to
// re-run: locations and cards are upserted by name.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/cardverse/cardverse/internal/config"
	"github.com/cardverse/cardverse/internal/db"
	"github.com/cardverse/cardverse/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// characterPage mirrors the character API's paginated response.
type characterPage struct {
	Info struct {
		Next string `json:"next"`
	} `json:"info"`
	Results []character `json:"results"`
}

type character struct {
	Name     string `json:"name"`
	Species  string `json:"species"`
	Gender   string `json:"gender"`
	Image    string `json:"image"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Episode []string `json:"episode"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, errLoad := config.Load(*configPath)
	if errLoad != nil {
		log.WithError(errLoad).Fatal("load config")
	}
	if cfg.Seed.CharactersURL == "" {
		log.Fatal("seed.characters-url is not configured")
	}

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		log.WithError(errOpen).Fatal("open database")
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		log.WithError(errMigrate).Fatal("migrate")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	total, errSeed := seedCatalog(ctx, conn, cfg.Seed.CharactersURL)
	if errSeed != nil {
		log.WithError(errSeed).Fatal("seed catalog")
	}
	log.Infof("seeded %d cards", total)
}

// seedCatalog walks every page of the character API and upserts the catalog.
func seedCatalog(ctx context.Context, conn *gorm.DB, url string) (int, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	total := 0

	for url != "" {
		page, errFetch := fetchPage(ctx, client, url)
		if errFetch != nil {
			return total, errFetch
		}
		for _, ch := range page.Results {
			if errUpsert := upsertCard(conn, ch); errUpsert != nil {
				return total, fmt.Errorf("upsert %q: %w", ch.Name, errUpsert)
			}
			total++
		}
		url = page.Info.Next
	}
	return total, nil
}

func fetchPage(ctx context.Context, client *http.Client, url string) (*characterPage, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if errReq != nil {
		return nil, errReq
	}
	resp, errDo := client.Do(req)
	if errDo != nil {
		return nil, errDo
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	var page characterPage
	if errDecode := json.NewDecoder(resp.Body).Decode(&page); errDecode != nil {
		return nil, errDecode
	}
	return &page, nil
}

func upsertCard(conn *gorm.DB, ch character) error {
	var locationID *uint64
	if ch.Location.Name != "" && ch.Location.Name != "unknown" {
		location := models.Location{Name: ch.Location.Name}
		if errLocation := conn.Where("name = ?", location.Name).FirstOrCreate(&location).Error; errLocation != nil {
			return errLocation
		}
		locationID = &location.ID
	}

	episodes, errMarshal := json.Marshal(ch.Episode)
	if errMarshal != nil {
		return errMarshal
	}

	card := models.Card{
		Name:       ch.Name,
		Type:       ch.Species,
		Gender:     ch.Gender,
		ImageURL:   ch.Image,
		LocationID: locationID,
		Episodes:   datatypes.JSON(episodes),
		IsActive:   true,
	}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "gender", "image_url", "location_id", "episodes"}),
	}).Create(&card).Error
}
