package config

import (
	"os"
	"path/filepath"
	"testing"

	"suumo-scraper/models"
)

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	if len(cats) != 4 {
		t.Fatalf("got %d default categories; want 4", len(cats))
	}
	seen := make(map[string]bool)
	for _, cc := range cats {
		if cc.SeedURL == "" || cc.SubCategory == "" {
			t.Errorf("category %s missing seed or label", cc.Category)
		}
		if cc.MaxPages <= 0 {
			t.Errorf("category %s has no page budget", cc.Category)
		}
		seen[cc.Category] = true
	}
	for _, want := range []string{
		models.CategoryRent, models.CategoryHouseNew,
		models.CategoryHouseUsed, models.CategoryLand,
	} {
		if !seen[want] {
			t.Errorf("default categories missing %s", want)
		}
	}
}

func TestCategoriesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yml")
	content := `categories:
  - category: mansion_used
    sub_category: マンション(中古)
    seed_url: https://suumo.jp/ms/chuko/tokyo/ek_06660/
    max_pages: 5
  - category: land
    sub_category: 土地
    seed_url: https://suumo.jp/tochi/tokyo/ek_06660/
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{CategoriesFile: path}
	cats, err := cfg.Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("got %d categories; want 2", len(cats))
	}
	if cats[0].Category != models.CategoryMansionUsed || cats[0].MaxPages != 5 {
		t.Errorf("cats[0] = %+v", cats[0])
	}
	if cats[1].MaxPages != 10 {
		t.Errorf("omitted max_pages should default to 10, got %d", cats[1].MaxPages)
	}
}

func TestCategoriesFromYAMLRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yml")
	if err := os.WriteFile(path, []byte("categories:\n  - sub_category: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{CategoriesFile: path}
	if _, err := cfg.Categories(); err == nil {
		t.Error("a category without category/seed_url must be rejected")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "scraper",
		PostgresPassword: "secret",
		PostgresDB:       "suumo_db",
		PostgresSSLMode:  "disable",
	}
	want := "host=localhost port=5432 user=scraper password=secret dbname=suumo_db sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}
