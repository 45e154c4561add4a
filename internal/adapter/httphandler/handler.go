package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/niksmo/eco-catalog/internal/core/catalog"
	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/internal/core/port"
)

// GET  v1/products?material=&impact=&max_price=&sort=&page=&size= (200 OK, 400 Bad request)
// GET  v1/products/count?material=&impact=&max_price= (200 OK, 400 Bad request)
// POST v1/products JSON (202 Accepted, 400 Bad request, 503 Service unavailable)
// GET  v1/stats/sort (200 OK, 503 Service unavailable)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

type ProductsService interface {
	port.ProductsQuerier
	port.ProductsCounter
	port.ProductsSender
}

// QueryDefaults fill the parameters a request leaves out.
type QueryDefaults struct {
	MaxPrice int
	PageSize int
}

type ProductsHandler struct {
	service  ProductsService
	defaults QueryDefaults
}

func RegisterProducts(
	mux *http.ServeMux, service ProductsService, defaults QueryDefaults,
) {
	if defaults.MaxPrice == 0 {
		defaults.MaxPrice = domain.DefaultMaxPrice
	}
	if defaults.PageSize <= 0 {
		defaults.PageSize = domain.DefaultPageSize
	}

	h := ProductsHandler{service, defaults}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/count", h.CountProducts)
	mux.HandleFunc("POST /v1/products", h.PostProducts)
}

func (h ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProducts"
	log := slog.With("op", op)

	params, err := decodeQueryParams(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid query parameters", http.StatusBadRequest)
		log.Warn("failed to decode query", "err", err)
		return
	}

	q := h.toQuery(params)
	res, err := h.service.QueryProducts(r.Context(), q)
	if err != nil {
		http.Error(w, "failed to query products", http.StatusInternalServerError)
		log.Error("failed to query products", "err", err)
		return
	}
	productQueries.WithLabelValues(q.Sort.String()).Inc()

	items := make([]Product, len(res.Items))
	for i, p := range res.Items {
		items[i] = productFromDomain(p)
	}

	writeJSON(w, http.StatusOK, ProductsResponse{
		Items:   items,
		Visible: res.Visible,
		Total:   res.Total,
		Page:    res.Page,
		Pages:   res.Pages,
		Label:   catalog.ResultsLabel(res.Visible, res.Total),
	})
}

func (h ProductsHandler) CountProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.CountProducts"
	log := slog.With("op", op)

	params, err := decodeQueryParams(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid query parameters", http.StatusBadRequest)
		log.Warn("failed to decode query", "err", err)
		return
	}

	visible, total, err := h.service.CountProducts(
		r.Context(), h.toFilter(params),
	)
	if err != nil {
		http.Error(w, "failed to count products", http.StatusInternalServerError)
		log.Error("failed to count products", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, CountResponse{
		Visible: visible,
		Total:   total,
		Label:   catalog.ResultsLabel(visible, total),
	})
}

func (h ProductsHandler) PostProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.PostProducts"
	log := slog.With("op", op)

	var ps []Product
	err := json.NewDecoder(r.Body).Decode(&ps)
	if err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	dps := make([]domain.Product, len(ps))
	for i, p := range ps {
		dps[i] = productToDomain(p)
	}

	err = h.service.SendProducts(r.Context(), dps)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProduct) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			log.Warn("invalid products", "err", err)
			return
		}
		http.Error(
			w, "failed to accept products", http.StatusServiceUnavailable,
		)
		log.Error("failed to send products", "err", err)
		return
	}
	acceptedProducts.Add(float64(len(ps)))

	w.WriteHeader(http.StatusAccepted)
	if _, err = w.Write([]byte("Accepted")); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Info("accepted", "nProducts", len(ps))
}

func (h ProductsHandler) toFilter(p queryParams) domain.FilterSpec {
	f := domain.FilterSpec{
		Materials:    p.Material,
		MaxPrice:     h.defaults.MaxPrice,
		ImpactScores: p.Impact,
	}
	if p.MaxPrice != nil {
		f.MaxPrice = *p.MaxPrice
	}
	return f
}

// toQuery treats an unknown sort key as featured.
func (h ProductsHandler) toQuery(p queryParams) domain.Query {
	sortKey, _ := domain.ParseSortKey(p.Sort)

	page := domain.Page{Number: p.Page, Size: p.Size}
	if page.Number <= 0 {
		page.Number = 1
	}
	if page.Size <= 0 {
		page.Size = h.defaults.PageSize
	}

	return domain.Query{
		Filter: h.toFilter(p),
		Sort:   sortKey,
		Page:   page,
	}
}

func decodeQueryParams(values url.Values) (queryParams, error) {
	var p queryParams
	if err := decoder.Decode(&p, values); err != nil {
		return queryParams{}, err
	}
	return p, nil
}

type StatsHandler struct {
	reader port.SortStatsReader
}

func RegisterStats(mux *http.ServeMux, reader port.SortStatsReader) {
	h := StatsHandler{reader}
	mux.HandleFunc("GET /v1/stats/sort", h.GetSortStats)
}

func (h StatsHandler) GetSortStats(w http.ResponseWriter, r *http.Request) {
	const op = "StatsHandler.GetSortStats"
	log := slog.With("op", op)

	stats, err := h.reader.SortStats(r.Context())
	if err != nil {
		http.Error(w, "sort statistics are unavailable", http.StatusServiceUnavailable)
		log.Warn("failed to read sort stats", "err", err)
		return
	}

	out := make([]SortStat, len(stats))
	for i, s := range stats {
		out[i] = SortStat{Sort: s.Sort.String(), Count: s.Count}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	const op = "writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}
