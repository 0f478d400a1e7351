package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeTimeout, http.StatusGatewayTimeout},
		{ErrorCodeUpstream, http.StatusBadGateway},
		{ErrorCodePanic, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestWrapAndInspect(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	src := stderrs.New("root")
	wrapped := Wrapf(src, ErrorCodeUpstream, "relay status %d", 500)
	if want := "relay status 500: root"; wrapped.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", wrapped.Error(), want)
	}
	if stderrs.Unwrap(wrapped) != src {
		t.Fatalf("Wrapf did not keep orig")
	}
	if got, ok := As(wrapped); !ok || got.Code() != ErrorCodeUpstream {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	base := Wrap(src, ErrorCodeValidation, "bad window")
	withField := WithField(base, "range")
	withOp := WithOp(withField, "set_window")
	if fe, _ := As(withField); fe.Field() != "range" {
		t.Fatalf("WithField failed")
	}
	if oe, _ := As(withOp); oe.Op() != "set_window" || oe.Field() != "range" {
		t.Fatalf("WithOp failed")
	}
	if b, _ := As(base); b.Field() != "" || b.Op() != "" {
		t.Fatalf("copy-on-write mutated original")
	}

	if wf := WireFrom(wrapped); wf.Code != ErrorCodeUpstream || wf.Message != "relay status 500" {
		t.Fatalf("WireFrom(ours) mismatch: %+v", wf)
	}
	if wf := WireFrom(src); wf.Code != ErrorCodeUnknown || wf.Message != "root" {
		t.Fatalf("WireFrom(foreign) mismatch: %+v", wf)
	}
	if wf := WireFrom(nil); wf != (Wire{}) {
		t.Fatalf("WireFrom(nil) expected zero, got %+v", wf)
	}
	if st, _ := HTTP(nil); st != http.StatusOK {
		t.Fatalf("HTTP(nil) status = %d", st)
	}
	if WrapIf(nil, ErrorCodeUnknown, "ignored") != nil {
		t.Fatalf("WrapIf(nil) should return nil")
	}

	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if got := Root(deep); got != src {
		t.Fatalf("Root() failed, got %v", got)
	}
}

func TestSugarCodes(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{NotFoundf("x"), ErrorCodeNotFound},
		{InvalidArgf("x"), ErrorCodeInvalidArgument},
		{JSONErrf("x"), ErrorCodeJSON},
		{PanicErrf("x"), ErrorCodePanic},
		{Conflictf("x"), ErrorCodeConflict},
		{Unavailablef("x"), ErrorCodeUnavailable},
		{Upstreamf("x"), ErrorCodeUpstream},
		{Internalf("x"), ErrorCodeUnknown},
		{ErrNotFound, ErrorCodeNotFound},
	}
	for _, c := range cases {
		if !IsCode(c.err, c.code) {
			t.Fatalf("IsCode(%v, %v) = false (got %v)", c.err, c.code, CodeOf(c.err))
		}
	}
}

func TestRetryable(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "relay.invalid", IsTimeout: true}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"throttled", Newf(ErrorCodeTooManyRequests, "slow down"), true},
		{"unavailable", Unavailablef("relay 503"), true},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), true},
		{"canceled", Wrap(context.Canceled, ErrorCodeUnavailable, "stopped"), false},
		{"network", fmt.Errorf("dial: %w", dnsErr), true},
		{"upstream 4xx", Upstreamf("bad filter"), false},
		{"foreign", stderrs.New("boom"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Retryable(c.err); got != c.want {
				t.Fatalf("Retryable(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}
