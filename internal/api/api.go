// Package api HTTP-обработчики поверх доменных сервисов.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/consumption"
	"github.com/Spok95/odonto/internal/domain/inventory"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/domain/procedures"
	"github.com/Spok95/odonto/internal/domain/shopping"
)

type ExecutionService interface {
	RecordExecution(ctx context.Context, in consumption.RecordInput) (*consumption.Execution, error)
	GetExecution(ctx context.Context, id int64) (*consumption.Execution, error)
	ListExecutions(ctx context.Context, f consumption.ListFilter) ([]consumption.Execution, error)
	DeleteExecution(ctx context.Context, id int64) error
}

type ShoppingService interface {
	GenerateSuggestions(ctx context.Context) (int, error)
	AddOrBump(ctx context.Context, in shopping.AddInput) (*shopping.Entry, error)
	List(ctx context.Context, f shopping.ListFilter) ([]shopping.Entry, error)
	Update(ctx context.Context, id int64, in shopping.UpdateInput) (*shopping.Entry, error)
	Delete(ctx context.Context, id int64) error
}

type MaterialService interface {
	Create(ctx context.Context, in materials.CreateInput) (*materials.Material, error)
	Get(ctx context.Context, id int64) (*materials.Material, error)
	Update(ctx context.Context, id int64, in materials.UpdateInput) (*materials.Material, error)
	SetActive(ctx context.Context, id int64, active bool) (*materials.Material, error)
	List(ctx context.Context, f materials.ListFilter) ([]materials.Material, error)
}

type StockService interface {
	Move(ctx context.Context, materialID int64, kind inventory.Kind, qty decimal.Decimal, reason string) (*inventory.Entry, error)
	History(ctx context.Context, materialID int64, limit int) ([]inventory.Entry, error)
	Import(ctx context.Context, rows []inventory.ImportRow) (inventory.ImportResult, error)
}

type ProcedureService interface {
	Create(ctx context.Context, p procedures.Procedure) (*procedures.Procedure, error)
	Get(ctx context.Context, id int64) (*procedures.Procedure, error)
	List(ctx context.Context, onlyActive bool) ([]procedures.Procedure, error)
	Items(ctx context.Context, procedureID int64) ([]procedures.Item, error)
	SetItems(ctx context.Context, procedureID int64, items []procedures.ItemInput) ([]procedures.Item, error)
	Cost(ctx context.Context, procedureID int64) (procedures.Cost, error)
}

type Deps struct {
	Executions ExecutionService
	Shopping   ShoppingService
	Materials  MaterialService
	Stock      StockService
	Procedures ProcedureService
}

type API struct {
	Deps
	validate *validator.Validate
	log      *slog.Logger
}

func New(d Deps, log *slog.Logger) *API {
	return &API{Deps: d, validate: newValidator(), log: log}
}

func (a *API) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/executions", a.RecordExecution).Methods(http.MethodPost)
	router.HandleFunc("/executions", a.ListExecutions).Methods(http.MethodGet)
	router.HandleFunc("/executions/{id:[0-9]+}", a.GetExecution).Methods(http.MethodGet)
	router.HandleFunc("/executions/{id:[0-9]+}", a.DeleteExecution).Methods(http.MethodDelete)

	router.HandleFunc("/restock-suggestions", a.GenerateSuggestions).Methods(http.MethodPost)
	router.HandleFunc("/shopping-list", a.ListShopping).Methods(http.MethodGet)
	router.HandleFunc("/shopping-list", a.AddShopping).Methods(http.MethodPost)
	router.HandleFunc("/shopping-list/{id:[0-9]+}", a.UpdateShopping).Methods(http.MethodPut)
	router.HandleFunc("/shopping-list/{id:[0-9]+}", a.DeleteShopping).Methods(http.MethodDelete)

	router.HandleFunc("/materials", a.ListMaterials).Methods(http.MethodGet)
	router.HandleFunc("/materials", a.CreateMaterial).Methods(http.MethodPost)
	router.HandleFunc("/materials/stock-import", a.ImportStock).Methods(http.MethodPost)
	router.HandleFunc("/materials/{id:[0-9]+}", a.GetMaterial).Methods(http.MethodGet)
	router.HandleFunc("/materials/{id:[0-9]+}", a.UpdateMaterial).Methods(http.MethodPut)
	router.HandleFunc("/materials/{id:[0-9]+}/active", a.SetMaterialActive).Methods(http.MethodPost)
	router.HandleFunc("/materials/{id:[0-9]+}/stock", a.MoveStock).Methods(http.MethodPost)
	router.HandleFunc("/materials/{id:[0-9]+}/history", a.StockHistory).Methods(http.MethodGet)

	router.HandleFunc("/procedures", a.ListProcedures).Methods(http.MethodGet)
	router.HandleFunc("/procedures", a.CreateProcedure).Methods(http.MethodPost)
	router.HandleFunc("/procedures/{id:[0-9]+}", a.GetProcedure).Methods(http.MethodGet)
	router.HandleFunc("/procedures/{id:[0-9]+}/materials", a.SetProcedureItems).Methods(http.MethodPut)
	router.HandleFunc("/procedures/{id:[0-9]+}/cost", a.ProcedureCost).Methods(http.MethodGet)
}
