package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCauseAndCode(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeDatasetUnavailable, cause, "fetching catalog index")

	if err.Code() != CodeDatasetUnavailable {
		t.Fatalf("unexpected code: %s", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if got := err.Error(); got != "DATASET_UNAVAILABLE: fetching catalog index" {
		t.Fatalf("unexpected error string: %q", got)
	}
}

func TestAsUnwrapsThroughFmtWrapping(t *testing.T) {
	inner := New(CodeMissingColumns, "retention requires signup_date")
	outer := fmt.Errorf("running query: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through fmt wrapping")
	}
	if typed.Code() != CodeMissingColumns {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeIntegrity, "sha256 mismatch")
	if !IsCode(err, CodeIntegrity) {
		t.Fatal("expected IsCode to match")
	}
	if IsCode(err, CodeNormalization) {
		t.Fatal("did not expect IsCode to match a different code")
	}
	if IsCode(nil, CodeIntegrity) {
		t.Fatal("nil error must not match")
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", meta.HTTPStatus)
	}
}

func TestMetadataStatuses(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeDatasetUnavailable: http.StatusBadGateway,
		CodeIntegrity:          http.StatusBadGateway,
		CodeNormalization:      http.StatusUnprocessableEntity,
		CodeMissingColumns:     http.StatusUnprocessableEntity,
		CodeNotFound:           http.StatusNotFound,
	}
	for code, want := range cases {
		if got := MetadataFor(code).HTTPStatus; got != want {
			t.Fatalf("code %s: expected status %d, got %d", code, want, got)
		}
	}
}

func TestDumpCollectsChain(t *testing.T) {
	root := errors.New("disk full")
	err := Wrap(CodeDatasetUnavailable, fmt.Errorf("writing cache file: %w", root), "populating cache")

	dump := Dump(err)
	if dump.Code != CodeDatasetUnavailable {
		t.Fatalf("unexpected code in dump: %s", dump.Code)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected chain of 3, got %d: %v", len(dump.Chain), dump.Chain)
	}
}
