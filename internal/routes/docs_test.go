package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/SudeepMi/parking-api/internal/config"
)

func TestRegisterDocsRoutesServesEndpointCatalogue(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "development", EnableDocs: true}

	registerDocsRoutes(app, cfg)

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Service   string         `json:"service"`
		Endpoints []docsEndpoint `json:"endpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Service != "parking-api" {
		t.Fatalf("expected service name, got %q", body.Service)
	}
	if len(body.Endpoints) == 0 {
		t.Fatalf("expected endpoints in catalogue")
	}
}

func TestRegisterDocsRoutesDisabledOutsideDevelopment(t *testing.T) {
	cases := []*config.Config{
		{AppEnv: "production", EnableDocs: true},
		{AppEnv: "development", EnableDocs: false},
	}

	for _, cfg := range cases {
		app := fiber.New()
		registerDocsRoutes(app, cfg)

		req := httptest.NewRequest(http.MethodGet, "/docs", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for %+v, got %d", cfg, resp.StatusCode)
		}
	}
}
