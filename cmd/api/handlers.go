package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	cartapp "github.com/LW95x/marketplace-backend/internal/cart/app"
	cartdomain "github.com/LW95x/marketplace-backend/internal/cart/domain"
	catalogapp "github.com/LW95x/marketplace-backend/internal/catalog/app"
	catalogdomain "github.com/LW95x/marketplace-backend/internal/catalog/domain"
	checkoutapp "github.com/LW95x/marketplace-backend/internal/checkout/app"
	checkoutdomain "github.com/LW95x/marketplace-backend/internal/checkout/domain"
	orderapp "github.com/LW95x/marketplace-backend/internal/order/app"
	orderdomain "github.com/LW95x/marketplace-backend/internal/order/domain"
	"github.com/shopspring/decimal"
)

type server struct {
	log      *slog.Logger
	catalog  *catalogapp.Service
	cart     *cartapp.Service
	orders   *orderapp.Service
	checkout *checkoutapp.Service
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	mux.HandleFunc("POST /products", s.handleCreateProduct)
	mux.HandleFunc("GET /products", s.handleListProducts)
	mux.HandleFunc("GET /products/{productID}", s.handleGetProduct)

	mux.HandleFunc("GET /users/{buyerID}/cart", s.handleGetCart)
	mux.HandleFunc("POST /users/{buyerID}/cart", s.handleAddCartItem)
	mux.HandleFunc("PATCH /users/{buyerID}/cart/{itemID}", s.handleUpdateCartItem)
	mux.HandleFunc("DELETE /users/{buyerID}/cart/{itemID}", s.handleRemoveCartItem)

	mux.HandleFunc("GET /users/{buyerID}/checkout/quote", s.handleQuote)

	mux.HandleFunc("GET /users/{buyerID}/orders", s.handleListOrders)
	mux.HandleFunc("POST /users/{buyerID}/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /users/{buyerID}/orders/{orderID}", s.handleGetOrder)
	mux.HandleFunc("PATCH /users/{buyerID}/orders/{orderID}", s.handleUpdateOrder)
	mux.HandleFunc("DELETE /users/{buyerID}/orders/{orderID}", s.handleDeleteOrder)

	return mux
}

// --- products ---

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		s.writeError(w, r, catalogapp.ErrInvalidInput)
		return
	}

	p, err := s.catalog.CreateProduct(r.Context(), req.Name, req.Description, price, req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetProduct(r.Context(), r.PathValue("productID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, next, err := s.catalog.ListProducts(r.Context(),
		r.URL.Query().Get("q"), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": out, "next_cursor": next})
}

// --- cart ---

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartItemPatch struct {
	Quantity int  `json:"quantity"`
	Additive bool `json:"additive"`
}

type cartItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type cartResponse struct {
	ID         string             `json:"id"`
	BuyerID    string             `json:"buyer_id"`
	Items      []cartItemResponse `json:"items"`
	TotalPrice string             `json:"total_price"`
}

func (s *server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.cart.Cart(r.Context(), r.PathValue("buyerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (s *server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	item, err := s.cart.UpsertItem(r.Context(), r.PathValue("buyerID"), req.ProductID, req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toCartItemResponse(item))
}

func (s *server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemPatch
	if !s.readJSON(w, r, &req) {
		return
	}

	item, err := s.cart.SetItemQuantity(r.Context(),
		r.PathValue("buyerID"), r.PathValue("itemID"), req.Quantity, req.Additive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCartItemResponse(item))
}

func (s *server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	err := s.cart.RemoveItem(r.Context(), r.PathValue("buyerID"), r.PathValue("itemID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- checkout ---

type quoteLineResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
	Available int    `json:"available"`
	InStock   bool   `json:"in_stock"`
}

type quoteResponse struct {
	Lines []quoteLineResponse `json:"lines"`
	Total string              `json:"total"`
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.checkout.Quote(r.Context(), r.PathValue("buyerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toQuoteResponse(quote))
}

// --- orders ---

type orderRequest struct {
	Address string `json:"address"`
}

type orderPatch struct {
	Status  *string `json:"status"`
	Address *string `json:"address"`
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	BuyerID    string              `json:"buyer_id"`
	Date       time.Time           `json:"date"`
	Status     string              `json:"status"`
	Address    string              `json:"address"`
	TotalPrice string              `json:"total_price"`
	Items      []orderItemResponse `json:"items"`
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	order, err := s.checkout.Convert(r.Context(), r.PathValue("buyerID"), req.Address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.Orders(r.Context(), r.PathValue("buyerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Order(r.Context(), r.PathValue("buyerID"), r.PathValue("orderID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (s *server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderPatch
	if !s.readJSON(w, r, &req) {
		return
	}

	order, err := s.orders.Update(r.Context(),
		r.PathValue("buyerID"), r.PathValue("orderID"),
		orderapp.UpdatePatch{Status: req.Status, Address: req.Address})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (s *server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	err := s.orders.Remove(r.Context(), r.PathValue("buyerID"), r.PathValue("orderID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping and plumbing ---

func toProductResponse(p catalogdomain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
	}
}

func toCartItemResponse(it cartdomain.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:        it.ID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice.StringFixed(2),
		LineTotal: it.LineTotal.StringFixed(2),
	}
}

func toCartResponse(cart cartdomain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, toCartItemResponse(it))
	}
	return cartResponse{
		ID:         cart.ID,
		BuyerID:    cart.BuyerID,
		Items:      items,
		TotalPrice: cart.TotalPrice.StringFixed(2),
	}
}

func toQuoteResponse(q checkoutdomain.Quote) quoteResponse {
	lines := make([]quoteLineResponse, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, quoteLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
			Available: l.Available,
			InStock:   l.InStock,
		})
	}
	return quoteResponse{Lines: lines, Total: q.Total.StringFixed(2)}
}

func toOrderResponse(o orderdomain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.LineTotal.StringFixed(2),
		})
	}
	return orderResponse{
		ID:         o.ID,
		BuyerID:    o.BuyerID,
		Date:       o.Date,
		Status:     string(o.Status),
		Address:    o.Address,
		TotalPrice: o.TotalPrice.StringFixed(2),
		Items:      items,
	}
}

func (s *server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Code: "INVALID_ARGUMENT", Message: "malformed request body"})
		return false
	}
	return true
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := httpStatusFromErr(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err))
		msg = "internal error"
	}
	s.writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("response encode failed", slog.Any("err", err))
	}
}
