package errx_test

import (
	"errors"
	"testing"

	"github.com/Abraxas-365/lectio/pkg/errx"
)

func TestRegistry_PrefixesCodes(t *testing.T) {
	reg := errx.NewRegistry("TEST")
	code := reg.Register("SOMETHING_BROKE", errx.TypeInternal, 500, "Something broke")

	err := reg.New(code)
	if err.Code != "TEST_SOMETHING_BROKE" {
		t.Fatalf("expected prefixed code, got %s", err.Code)
	}
	if err.HTTPStatus != 500 || err.Type != errx.TypeInternal {
		t.Fatalf("code metadata lost: %+v", err)
	}
}

func TestError_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	reg := errx.NewRegistry("TEST")
	code := reg.Register("UPSTREAM", errx.TypeExternal, 502, "Upstream failed")

	err := reg.NewWithCause(code, cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}

	var xe *errx.Error
	if !errx.As(err, &xe) || xe.Type != errx.TypeExternal {
		t.Fatalf("errx.As failed on %v", err)
	}
}

func TestError_WithDetail(t *testing.T) {
	err := errx.Validation("bad input").WithDetail("field", "name").WithDetail("reason", "empty")
	if err.Details["field"] != "name" || err.Details["reason"] != "empty" {
		t.Fatalf("details not accumulated: %+v", err.Details)
	}
}

func TestError_TypeMapsToStatus(t *testing.T) {
	if errx.NotFound("missing").HTTPStatus != 404 {
		t.Fatal("not-found should map to 404")
	}
	if errx.Validation("bad").HTTPStatus != 400 {
		t.Fatal("validation should map to 400")
	}
	if errx.Internal("boom").HTTPStatus != 500 {
		t.Fatal("internal should map to 500")
	}
}
