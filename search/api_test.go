package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pagefuse/pagefuse/element"
)

func testServer(t *testing.T, indexed bool) *httptest.Server {
	t.Helper()
	ix := NewIndex(Config{}, newWordEmbedder(), nil)
	if indexed {
		if err := ix.Build(context.Background(), []*element.Element{
			clickableAt("Buy Now", "button", 0),
			clickableAt("Home", "a", 40),
		}); err != nil {
			t.Fatal(err)
		}
	}
	svc := &Service{Index: ix}
	srv := httptest.NewServer(svc.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleSearch(t *testing.T) {
	srv := testServer(t, true)

	resp := postJSON(t, srv.URL+"/search", `{"query":"buy now"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count == 0 || body.Results[0].Element.Content != "Buy Now" {
		t.Fatalf("body = %+v", body)
	}
}

func TestHandleSearchEmptyQuery(t *testing.T) {
	srv := testServer(t, true)
	if resp := postJSON(t, srv.URL+"/search", `{"query":""}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSearchNotIndexed(t *testing.T) {
	srv := testServer(t, false)
	if resp := postJSON(t, srv.URL+"/search", `{"query":"x"}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestHandleSearchBadJSON(t *testing.T) {
	srv := testServer(t, true)
	if resp := postJSON(t, srv.URL+"/search", `{`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleRegion(t *testing.T) {
	srv := testServer(t, true)

	resp := postJSON(t, srv.URL+"/region", `{"regions":["top"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body RegionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count == 0 {
		t.Fatal("expected elements in the top band")
	}
}

func TestHandleRegionUnknownZone(t *testing.T) {
	srv := testServer(t, true)
	if resp := postJSON(t, srv.URL+"/region", `{"regions":["diagonal"]}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleRegionRequiresZones(t *testing.T) {
	srv := testServer(t, true)
	if resp := postJSON(t, srv.URL+"/region", `{"regions":[]}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleElements(t *testing.T) {
	srv := testServer(t, true)

	resp, err := http.Get(srv.URL + "/elements")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body ElementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d", body.Count)
	}
}
