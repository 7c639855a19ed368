package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/consumption"
)

type recordExecutionRequest struct {
	ProcedureID int64  `json:"procedure_id" validate:"required,gt=0"`
	Count       int    `json:"quantidade" validate:"required,gt=0,lte=2147483647"`
	Notes       string `json:"observacoes" validate:"max=2000"`
	// не передано = списывать
	Deduct *bool `json:"realizar_baixa"`
}

func (a *API) RecordExecution(w http.ResponseWriter, r *http.Request) {
	var req recordExecutionRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	deduct := true
	if req.Deduct != nil {
		deduct = *req.Deduct
	}
	e, err := a.Executions.RecordExecution(r.Context(), consumption.RecordInput{
		ProcedureID: req.ProcedureID,
		Count:       req.Count,
		Deduct:      deduct,
		Notes:       req.Notes,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

func (a *API) ListExecutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f consumption.ListFilter

	if raw := q.Get("procedure_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			a.fail(w, r, apperr.Validation("invalid procedure_id %q", raw))
			return
		}
		f.ProcedureID = id
	}
	var err error
	if f.From, err = queryTime(q.Get("from"), "from"); err != nil {
		a.fail(w, r, err)
		return
	}
	if f.To, err = queryTime(q.Get("to"), "to"); err != nil {
		a.fail(w, r, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		a.fail(w, r, err)
		return
	}

	out, err := a.Executions.ListExecutions(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if out == nil {
		out = []consumption.Execution{}
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (a *API) GetExecution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	e, err := a.Executions.GetExecution(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

func (a *API) DeleteExecution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Executions.DeleteExecution(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// queryTime принимает RFC3339 или дату YYYY-MM-DD; для to дата означает конец дня.
func queryTime(raw, key string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s %q", key, raw)
	}
	if key == "to" {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
