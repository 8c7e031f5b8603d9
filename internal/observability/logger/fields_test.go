package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"admin@x.com": "a***@x.com",
		"a@x.com":     "a***@x.com",
		"nodomain":    "***",
		"@x.com":      "***",
		"":            "",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFrom_FallsBackToSingleton(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Use(zap.New(core))
	defer Use(nil)

	From(context.Background()).Info("hola")
	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry in singleton, got %d", logs.Len())
	}

	scopedCore, scoped := observer.New(zap.InfoLevel)
	ctx := ToContext(context.Background(), zap.New(scopedCore))
	From(ctx).Info("scoped", Email("user@x.com"))
	if scoped.Len() != 1 {
		t.Fatalf("expected scoped entry")
	}
	if got := scoped.All()[0].ContextMap()["email"]; got != "u***@x.com" {
		t.Fatalf("email field not masked: %v", got)
	}
}
