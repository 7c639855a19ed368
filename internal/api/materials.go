package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/inventory"
	"github.com/Spok95/odonto/internal/domain/materials"
)

const maxUploadBytes = 10 << 20

func (a *API) ListMaterials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := a.Materials.List(r.Context(), materials.ListFilter{
		OnlyActive: q.Get("active") == "true",
		Query:      q.Get("q"),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if out == nil {
		out = []materials.Material{}
	}
	respondWithJSON(w, http.StatusOK, out)
}

type createMaterialRequest struct {
	Name     string          `json:"nome" validate:"required,max=200"`
	Unit     string          `json:"unidade" validate:"omitempty,oneof=un g ml cx"`
	OnHand   decimal.Decimal `json:"quantidade_atual"`
	Minimum  decimal.Decimal `json:"quantidade_minima"`
	UnitCost decimal.Decimal `json:"custo_unitario"`
}

func (a *API) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req createMaterialRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Materials.Create(r.Context(), materials.CreateInput{
		Name:     req.Name,
		Unit:     materials.Unit(req.Unit),
		OnHand:   req.OnHand,
		Minimum:  req.Minimum,
		UnitCost: req.UnitCost,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, m)
}

func (a *API) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Materials.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

type updateMaterialRequest struct {
	Name     *string          `json:"nome" validate:"omitempty,min=1,max=200"`
	Unit     *string          `json:"unidade" validate:"omitempty,oneof=un g ml cx"`
	Minimum  *decimal.Decimal `json:"quantidade_minima"`
	UnitCost *decimal.Decimal `json:"custo_unitario"`
}

func (a *API) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req updateMaterialRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	in := materials.UpdateInput{Name: req.Name, Minimum: req.Minimum, UnitCost: req.UnitCost}
	if req.Unit != nil {
		u := materials.Unit(*req.Unit)
		in.Unit = &u
	}
	m, err := a.Materials.Update(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

type setActiveRequest struct {
	Active *bool `json:"ativo" validate:"required"`
}

func (a *API) SetMaterialActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req setActiveRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Materials.SetActive(r.Context(), id, *req.Active)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

type moveStockRequest struct {
	Kind   string          `json:"tipo" validate:"required,oneof=entrada saida ajuste"`
	Qty    decimal.Decimal `json:"quantidade"`
	Reason string          `json:"motivo" validate:"max=500"`
}

func (a *API) MoveStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req moveStockRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	e, err := a.Stock.Move(r.Context(), id, inventory.Kind(req.Kind), req.Qty, req.Reason)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

func (a *API) StockHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.Stock.History(r.Context(), id, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if out == nil {
		out = []inventory.Entry{}
	}
	respondWithJSON(w, http.StatusOK, out)
}

// ImportStock принимает multipart с полем file (.xlsx) и выставляет остатки по файлу.
func (a *API) ImportStock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.fail(w, r, apperr.Validation("invalid multipart form: %v", err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		a.fail(w, r, apperr.Validation("file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	rows, err := inventory.ParseStockSheet(file)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Stock.Import(r.Context(), rows)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
