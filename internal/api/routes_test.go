package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skylens/auction-intel/internal/db"
	"github.com/skylens/auction-intel/internal/recommend"
)

type fakeItemSource struct {
	items     []db.ItemSuggestion
	gotPrefix string
	gotLimit  int
	err       error
}

func (f *fakeItemSource) KnownItems(_ context.Context, prefix string, limit int) ([]db.ItemSuggestion, error) {
	f.gotPrefix = prefix
	f.gotLimit = limit
	return f.items, f.err
}

type fakeRecommender struct {
	got  recommend.Request
	resp recommend.Response
	err  error
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (recommend.Response, error) {
	f.got = req
	return f.resp, f.err
}

func testRouter(store ItemSource, rec Recommender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(store, rec, NewHub())
}

func get(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	body := map[string]json.RawMessage{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("response %q is not a JSON object: %v", w.Body.String(), err)
		}
	}
	return w, body
}

func TestItemsEndpoint(t *testing.T) {
	store := &fakeItemSource{items: []db.ItemSuggestion{{Key: "necrons blade", Sales: 42}}}
	r := testRouter(store, &fakeRecommender{})

	w, body := get(t, r, "/api/items?q=Necron%27s&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if store.gotPrefix != "necrons" || store.gotLimit != 5 {
		t.Errorf("store called with prefix=%q limit=%d", store.gotPrefix, store.gotLimit)
	}
	var items []db.ItemSuggestion
	if err := json.Unmarshal(body["items"], &items); err != nil || len(items) != 1 {
		t.Errorf("items payload = %s", body["items"])
	}
}

func TestItemsEndpoint_LimitGuard(t *testing.T) {
	store := &fakeItemSource{}
	r := testRouter(store, &fakeRecommender{})
	get(t, r, "/api/items?limit=100000")
	if store.gotLimit != 20 {
		t.Errorf("oversized limit should fall back to default, got %d", store.gotLimit)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	price := int64(1_000_000)
	rec := &fakeRecommender{resp: recommend.Response{Recommended: &price, RangeCount: 12}}
	r := testRouter(&fakeItemSource{}, rec)

	w, body := get(t, r, "/api/recommend?item_key=Necron%27s+Blade&stars10=8&enchants=Sharpness+7")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if rec.got.ItemKey != "necrons blade" || rec.got.Stars10 != 8 {
		t.Errorf("recommender got %+v", rec.got)
	}
	var recommended int64
	if err := json.Unmarshal(body["recommended"], &recommended); err != nil || recommended != price {
		t.Errorf("recommended payload = %s", body["recommended"])
	}
}

func TestRecommendEndpoint_BadQuery(t *testing.T) {
	r := testRouter(&fakeItemSource{}, &fakeRecommender{})
	w, _ := get(t, r, "/api/recommend?item=x&enchants=Sharpness")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRecommendEndpoint_EngineError(t *testing.T) {
	r := testRouter(&fakeItemSource{}, &fakeRecommender{err: errors.New("db down")})
	w, _ := get(t, r, "/api/recommend?item=x")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	r := testRouter(&fakeItemSource{}, &fakeRecommender{})
	for path, legacyKey := range map[string]string{
		"/api/enchants": "enchants",
		"/api/dyes":     "dyes",
		"/api/skins":    "skins",
		"/api/petskins": "petskins",
		"/api/petitems": "petitems",
	} {
		w, body := get(t, r, path)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, w.Code)
			continue
		}
		for _, key := range []string{"items", legacyKey} {
			var list []json.RawMessage
			if err := json.Unmarshal(body[key], &list); err != nil || len(list) == 0 {
				t.Errorf("%s: empty or malformed %q payload: %s", path, key, body[key])
			}
		}
	}
}

func TestEnchantsEndpoint_FilterAndStrings(t *testing.T) {
	r := testRouter(&fakeItemSource{}, &fakeRecommender{})
	w, body := get(t, r, "/api/enchants?q=sharp&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var names []string
	if err := json.Unmarshal(body["items"], &names); err != nil {
		t.Fatalf("items payload = %s", body["items"])
	}
	if len(names) != 1 || names[0] != "sharpness" {
		t.Errorf("filtered names = %v", names)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(&fakeItemSource{}, &fakeRecommender{})
	w, body := get(t, r, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var ok bool
	if err := json.Unmarshal(body["ok"], &ok); err != nil || !ok {
		t.Errorf("ok payload = %s", body["ok"])
	}
}

func TestCORSPreflight(t *testing.T) {
	r := testRouter(&fakeItemSource{}, &fakeRecommender{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/api/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)
	if w.Code != 204 {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS allow-origin header")
	}
}
