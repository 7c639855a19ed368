package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/shopping"
)

type restockResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Added   int    `json:"added"`
}

func (a *API) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	n, err := a.Shopping.GenerateSuggestions(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, restockResponse{
		Success: true,
		Message: fmt.Sprintf("%d itens adicionados à lista de compras", n),
		Added:   n,
	})
}

func (a *API) ListShopping(w http.ResponseWriter, r *http.Request) {
	f := shopping.ListFilter{Status: shopping.Status(r.URL.Query().Get("status"))}
	out, err := a.Shopping.List(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if out == nil {
		out = []shopping.Entry{}
	}
	respondWithJSON(w, http.StatusOK, out)
}

type addShoppingRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	Qty        decimal.Decimal `json:"quantidade_sugerida"`
	Priority   string          `json:"prioridade" validate:"omitempty,oneof=baixa normal alta urgente"`
	Notes      string          `json:"observacoes" validate:"max=2000"`
	NeededBy   *string         `json:"data_necessidade" validate:"omitempty,datetime=2006-01-02"`
}

func (a *API) AddShopping(w http.ResponseWriter, r *http.Request) {
	var req addShoppingRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	e, err := a.Shopping.AddOrBump(r.Context(), shopping.AddInput{
		MaterialID: req.MaterialID,
		Qty:        req.Qty,
		Priority:   shopping.Priority(req.Priority),
		Notes:      req.Notes,
		NeededBy:   parseDate(req.NeededBy),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

type updateShoppingRequest struct {
	Qty      *decimal.Decimal `json:"quantidade_sugerida"`
	Priority *string          `json:"prioridade" validate:"omitempty,oneof=baixa normal alta urgente"`
	Status   *string          `json:"status" validate:"omitempty,oneof=pendente aprovado comprado cancelado"`
	Notes    *string          `json:"observacoes" validate:"omitempty,max=2000"`
	NeededBy *string          `json:"data_necessidade" validate:"omitempty,datetime=2006-01-02"`
}

func (a *API) UpdateShopping(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req updateShoppingRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	in := shopping.UpdateInput{
		Qty:      req.Qty,
		Notes:    req.Notes,
		NeededBy: parseDate(req.NeededBy),
	}
	if req.Priority != nil {
		p := shopping.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.Status != nil {
		s := shopping.Status(*req.Status)
		in.Status = &s
	}

	e, err := a.Shopping.Update(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

func (a *API) DeleteShopping(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Shopping.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// parseDate формат уже проверен validator'ом (datetime=2006-01-02).
func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil
	}
	return &t
}
