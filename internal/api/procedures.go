package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/procedures"
)

func (a *API) ListProcedures(w http.ResponseWriter, r *http.Request) {
	out, err := a.Procedures.List(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if out == nil {
		out = []procedures.Procedure{}
	}
	respondWithJSON(w, http.StatusOK, out)
}

type createProcedureRequest struct {
	Name        string          `json:"nome" validate:"required,max=200"`
	Description string          `json:"descricao" validate:"max=2000"`
	Price       decimal.Decimal `json:"preco"`
}

func (a *API) CreateProcedure(w http.ResponseWriter, r *http.Request) {
	var req createProcedureRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.Procedures.Create(r.Context(), procedures.Procedure{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

type procedureResponse struct {
	*procedures.Procedure
	Items []procedures.Item `json:"materiais"`
}

func (a *API) GetProcedure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.Procedures.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.Procedures.Items(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []procedures.Item{}
	}
	respondWithJSON(w, http.StatusOK, procedureResponse{Procedure: p, Items: items})
}

type bomItemRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	Qty        decimal.Decimal `json:"quantidade"`
}

type setItemsRequest struct {
	Items []bomItemRequest `json:"materiais" validate:"dive"`
}

// SetProcedureItems заменяет BOM целиком; пустой список очищает его.
func (a *API) SetProcedureItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req setItemsRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	in := make([]procedures.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		in = append(in, procedures.ItemInput{MaterialID: it.MaterialID, Qty: it.Qty})
	}
	items, err := a.Procedures.SetItems(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []procedures.Item{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (a *API) ProcedureCost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Procedures.Cost(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}
