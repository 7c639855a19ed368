package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: Validation("procedure_id is required"), want: http.StatusBadRequest},
		{name: "not_found", err: NotFound("execution", 7), want: http.StatusNotFound},
		{name: "data_store", err: DataStore("materials.Get", boom), want: http.StatusInternalServerError},
		{name: "plain", err: boom, want: http.StatusInternalServerError},
		{name: "wrapped_validation", err: fmt.Errorf("ctx: %w", Validation("bad")), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDataStore_SurfacesUnderlyingMessage(t *testing.T) {
	boom := errors.New("duplicate key value")
	err := DataStore("shopping.Insert", boom)

	if err.Error() != "duplicate key value" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, boom) {
		t.Error("expected wrapped error to be reachable via errors.Is")
	}
	if !Is(err, KindDataStore) {
		t.Errorf("expected data_store kind, got %v", KindOf(err))
	}
}

func TestDataStore_KeepsExistingKind(t *testing.T) {
	nf := NotFound("material", 3)
	if got := DataStore("op", nf); !Is(got, KindNotFound) {
		t.Errorf("expected not_found to survive, got %v", KindOf(got))
	}
	if DataStore("op", nil) != nil {
		t.Error("expected nil for nil error")
	}
}
