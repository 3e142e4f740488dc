package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/SudeepMi/parking-api/internal/models"
)

type stubUserLocator struct {
	user *models.User
	err  error
}

func (s *stubUserLocator) GetByID(_ context.Context, _ int64) (*models.User, error) {
	return s.user, s.err
}

type stubNearestFinder struct {
	result  []models.SpotDistance
	err     error
	lastK   int
	lastLat float64
	lastLng float64
}

func (s *stubNearestFinder) FindNearest(_ context.Context, k int, lat, lng float64) ([]models.SpotDistance, error) {
	s.lastK = k
	s.lastLat = lat
	s.lastLng = lng
	return s.result, s.err
}

func newSpotTestApp(handler *SpotHandler, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "user")
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/spots/nearest", handler.Nearest)
	return app
}

func floatPtr(v float64) *float64 { return &v }

func TestNearestUsesStoredLocationAndDefaultK(t *testing.T) {
	finder := &stubNearestFinder{
		result: []models.SpotDistance{
			{SpotID: 1, Name: "A", DistanceMeters: 0},
			{SpotID: 2, Name: "B", DistanceMeters: 500},
		},
	}
	handler := &SpotHandler{
		userRepo: &stubUserLocator{user: &models.User{
			ID:        42,
			Latitude:  floatPtr(27.7),
			Longitude: floatPtr(85.3),
		}},
		nearest: finder,
	}
	app := newSpotTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spots/nearest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if finder.lastK != defaultNearestLimit {
		t.Fatalf("expected default k %d, got %d", defaultNearestLimit, finder.lastK)
	}
	if finder.lastLat != 27.7 || finder.lastLng != 85.3 {
		t.Fatalf("expected stored location forwarded, got (%f, %f)", finder.lastLat, finder.lastLng)
	}

	var body struct {
		Spots []models.SpotDistance `json:"spots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Spots) != 2 || body.Spots[0].Name != "A" {
		t.Fatalf("unexpected result order: %+v", body.Spots)
	}
}

func TestNearestHonoursKQueryParam(t *testing.T) {
	finder := &stubNearestFinder{}
	handler := &SpotHandler{
		userRepo: &stubUserLocator{user: &models.User{
			ID:        42,
			Latitude:  floatPtr(0),
			Longitude: floatPtr(0),
		}},
		nearest: finder,
	}
	app := newSpotTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spots/nearest?k=7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if finder.lastK != 7 {
		t.Fatalf("expected k=7, got %d", finder.lastK)
	}
}

func TestNearestRequiresStoredLocation(t *testing.T) {
	finder := &stubNearestFinder{}
	handler := &SpotHandler{
		userRepo: &stubUserLocator{user: &models.User{ID: 42}},
		nearest:  finder,
	}
	app := newSpotTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spots/nearest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if finder.lastK != 0 {
		t.Fatalf("expected finder untouched, got k=%d", finder.lastK)
	}
}

func TestNearestReturnsNotFoundForMissingUser(t *testing.T) {
	handler := &SpotHandler{
		userRepo: &stubUserLocator{err: pgx.ErrNoRows},
		nearest:  &stubNearestFinder{},
	}
	app := newSpotTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spots/nearest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
