package shared

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Error("expected distinct state tokens")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("state should be URL safe, got %q", a)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "component", "test")
	logger.Info("hello")

	if !strings.Contains(buf.String(), "component=test") {
		t.Errorf("expected child logger fields in output, got %q", buf.String())
	}
}

func TestErrors(t *testing.T) {
	t.Run("InsufficientDataError", func(t *testing.T) {
		var err error = &InsufficientDataError{Have: 3, Need: 8}
		if !errors.Is(err, ErrInsufficientData) {
			t.Error("expected errors.Is ErrInsufficientData")
		}
		if !strings.Contains(err.Error(), "3 tracks") {
			t.Errorf("unexpected message %q", err.Error())
		}

		empty := &InsufficientDataError{Need: 8}
		if !strings.Contains(empty.Error(), "no tracks") {
			t.Errorf("unexpected message %q", empty.Error())
		}
	})

	t.Run("FetchError Unauthorized", func(t *testing.T) {
		var err error = &FetchError{Op: "GET", URL: "/me/tracks", StatusCode: http.StatusUnauthorized}
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Error("expected 401 to unwrap to ErrNotAuthenticated")
		}
		if !errors.Is(err, ErrAPIRequest) {
			t.Error("expected FetchError to unwrap to ErrAPIRequest")
		}
	})

	t.Run("FetchError Transport", func(t *testing.T) {
		cause := errors.New("connection refused")
		var err error = &FetchError{Op: "GET", URL: "/me/tracks", Err: cause}
		if !errors.Is(err, cause) {
			t.Error("expected underlying error to be reachable")
		}
		if errors.Is(err, ErrNotAuthenticated) {
			t.Error("transport error should not be ErrNotAuthenticated")
		}

		var fe *FetchError
		if !errors.As(err, &fe) || fe.StatusCode != 0 {
			t.Error("expected errors.As to find FetchError")
		}
	})

	t.Run("NormalizationError", func(t *testing.T) {
		var err error = &NormalizationError{Column: "tempo", Reason: "NaN"}
		if !errors.Is(err, ErrNormalization) {
			t.Error("expected errors.Is ErrNormalization")
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	t.Run("rejects non http urls", func(t *testing.T) {
		if err := OpenBrowser("file:///etc/passwd"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
