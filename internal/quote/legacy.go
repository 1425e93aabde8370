package quote

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/model"
)

// Messages returned by the legacy form endpoints. The product form matches
// on these strings.
const (
	legacySKUNotFound     = "SKU não encontrado na planilha"
	legacyProductNotFound = "Produto não encontrado"
	legacyNoName          = "Nome não disponível"
)

// flexString accepts a JSON string or a bare number, as spreadsheet SKUs
// are often numeric.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// LegacyQuoteRequest is the body the product form posts to /calcular.
type LegacyQuoteRequest struct {
	SKU         flexString      `json:"sku"`
	PrecoSite   decimal.Decimal `json:"preco_site"`
	Acrescimo   decimal.Decimal `json:"acrescimo"`
	TipoAnuncio string          `json:"tipo_anuncio"`
	Desconto    decimal.Decimal `json:"desconto"`
	Quantidade  *int            `json:"quantidade"`
}

// LegacyQuoteResponse carries the breakdown under the form's field names,
// as plain JSON numbers.
type LegacyQuoteResponse struct {
	PrecoML          float64 `json:"Preço_ML"`
	PrecoComDesconto float64 `json:"Preço_com_Desconto"`
	Lucro            float64 `json:"Lucro"`
	Margem           float64 `json:"Margem"`
	Markup           float64 `json:"Markup"`
	Tarifa           float64 `json:"Tarifa"`
	Imposto          float64 `json:"Imposto"`
	Frete            float64 `json:"Frete"`
	TaxaFixa         float64 `json:"Taxa_Fixa"`
}

func legacyResponse(res *model.PricingResult) LegacyQuoteResponse {
	return LegacyQuoteResponse{
		PrecoML:          res.DerivedPrice.InexactFloat64(),
		PrecoComDesconto: res.DiscountedPrice.InexactFloat64(),
		Lucro:            res.Profit.InexactFloat64(),
		Margem:           res.MarginPercent.InexactFloat64(),
		Markup:           res.MarkupRatio.InexactFloat64(),
		Tarifa:           res.Commission.InexactFloat64(),
		Imposto:          res.Tax.InexactFloat64(),
		Frete:            res.ShippingFee.InexactFloat64(),
		TaxaFixa:         res.FixedFee.InexactFloat64(),
	}
}

// LegacyQuote handles POST /calcular. An unknown SKU answers 200 with an
// "erro" field, which is what the form expects.
func (s *Service) LegacyQuote(w http.ResponseWriter, r *http.Request) {
	var body LegacyQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeLegacyError(w, "requisição inválida", http.StatusBadRequest)
		return
	}

	// The form treats a blank SKU like an unknown one.
	if model.NormalizeSKU(string(body.SKU)) == "" {
		writeJSON(w, http.StatusOK, map[string]string{"erro": legacySKUNotFound})
		return
	}

	qty := 1
	if body.Quantidade != nil {
		qty = *body.Quantidade
	}
	req := model.PricingRequest{
		SKU:             string(body.SKU),
		SitePrice:       body.PrecoSite,
		MarkupPercent:   body.Acrescimo,
		ListingTier:     model.ListingTier(body.TipoAnuncio),
		DiscountPercent: body.Desconto,
		Quantity:        qty,
	}

	res, err := s.quote(r.Context(), &req)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{"erro": legacySKUNotFound})
			return
		}
		status, msg := errorStatus(err)
		writeLegacyError(w, msg, status)
		return
	}

	s.announce(r.Context(), uuid.New().String(), req, *res)
	writeJSON(w, http.StatusOK, legacyResponse(res))
}

// LegacyProduct handles GET /produto/{sku}, returning the display name.
func (s *Service) LegacyProduct(w http.ResponseWriter, r *http.Request) {
	entry, err := s.catalog.Lookup(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeLegacyError(w, legacyProductNotFound, http.StatusNotFound)
			return
		}
		status, msg := errorStatus(err)
		writeLegacyError(w, msg, status)
		return
	}

	name := entry.Name
	if name == "" {
		name = legacyNoName
	}
	writeJSON(w, http.StatusOK, map[string]string{"nome": name})
}

func writeLegacyError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"erro": message})
}
