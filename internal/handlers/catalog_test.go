package handlers

import (
	"net/http"
	"testing"
)

type productListBody struct {
	Items []struct {
		ID           string `json:"id"`
		Price        int64  `json:"price"`
		PriceDisplay string `json:"priceDisplay"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

func TestCatalogListFiltersByCategoryAndPrice(t *testing.T) {
	f := newAPIFixture(t, false)

	rr := f.do(t, http.MethodGet, "/api/v1/public/products?category=home", nil)
	expectStatus(t, rr, http.StatusOK)
	body := decodeBody[productListBody](t, rr)
	if len(body.Items) != 2 || body.Items[0].ID != "lamp" || body.Items[1].ID != "rug" {
		t.Fatalf("expected lamp then rug, got %+v", body.Items)
	}
	if body.Items[0].PriceDisplay != "50.00" {
		t.Fatalf("expected display price 50.00, got %s", body.Items[0].PriceDisplay)
	}

	rr = f.do(t, http.MethodGet, "/api/v1/public/products?minPrice=100.00&maxPrice=250", nil)
	expectStatus(t, rr, http.StatusOK)
	body = decodeBody[productListBody](t, rr)
	if len(body.Items) != 1 || body.Items[0].ID != "kurta" {
		t.Fatalf("expected only kurta, got %+v", body.Items)
	}
}

func TestCatalogListPaginates(t *testing.T) {
	f := newAPIFixture(t, false)

	rr := f.do(t, http.MethodGet, "/api/v1/public/products?pageSize=2", nil)
	expectStatus(t, rr, http.StatusOK)
	first := decodeBody[productListBody](t, rr)
	if len(first.Items) != 2 || first.NextPageToken == "" {
		t.Fatalf("expected a full first page with a token, got %+v", first)
	}

	rr = f.do(t, http.MethodGet, "/api/v1/public/products?pageSize=2&pageToken="+first.NextPageToken, nil)
	expectStatus(t, rr, http.StatusOK)
	second := decodeBody[productListBody](t, rr)
	if len(second.Items) != 1 || second.NextPageToken != "" {
		t.Fatalf("expected a final page of one, got %+v", second)
	}
	for _, item := range first.Items {
		if item.ID == second.Items[0].ID {
			t.Fatalf("product %s returned on both pages", item.ID)
		}
	}
}

func TestCatalogListRejectsBadQuery(t *testing.T) {
	f := newAPIFixture(t, false)

	cases := []struct {
		query string
		field string
	}{
		{"minPrice=1.234", "minPrice"},
		{"maxPrice=abc", "maxPrice"},
		{"minPrice=300&maxPrice=100", "minPrice"},
		{"inStock=maybe", "inStock"},
		{"sort=price", "sort"},
		{"pageSize=0", "pageSize"},
		{"pageToken=%21%21%21", "pageToken"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rr := f.do(t, http.MethodGet, "/api/v1/public/products?"+tc.query, nil)
			body := expectErrorCode(t, rr, http.StatusBadRequest, "validation_failed")
			if body["field"] != tc.field {
				t.Fatalf("expected field %s, got %v", tc.field, body["field"])
			}
		})
	}
}

func TestCatalogGetProduct(t *testing.T) {
	f := newAPIFixture(t, false)

	rr := f.do(t, http.MethodGet, "/api/v1/public/products/kurta", nil)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeBody[map[string]any](t, rr); got["price"] != float64(19999) {
		t.Fatalf("expected price 19999, got %v", got["price"])
	}

	rr = f.do(t, http.MethodGet, "/api/v1/public/products/missing", nil)
	expectErrorCode(t, rr, http.StatusNotFound, "not_found")
}

func TestCatalogFeaturedAndCategories(t *testing.T) {
	f := newAPIFixture(t, false)

	rr := f.do(t, http.MethodGet, "/api/v1/public/products/featured?limit=1", nil)
	expectStatus(t, rr, http.StatusOK)
	featured := decodeBody[productListBody](t, rr)
	if len(featured.Items) != 1 || featured.Items[0].ID != "lamp" {
		t.Fatalf("expected best rated lamp, got %+v", featured.Items)
	}

	rr = f.do(t, http.MethodGet, "/api/v1/public/products/featured?limit=-1", nil)
	expectErrorCode(t, rr, http.StatusBadRequest, "validation_failed")

	rr = f.do(t, http.MethodGet, "/api/v1/public/categories", nil)
	expectStatus(t, rr, http.StatusOK)
	categories := decodeBody[struct {
		Items []string `json:"items"`
	}](t, rr)
	if len(categories.Items) != 2 || categories.Items[0] != "Clothing" || categories.Items[1] != "Home" {
		t.Fatalf("unexpected categories %v", categories.Items)
	}
}
