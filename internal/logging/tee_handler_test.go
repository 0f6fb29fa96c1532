package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	h := newTeeHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled when any handler accepts debug")
	}

	logger := slog.New(h)
	logger.Debug("debug only")
	if infoBuf.Len() != 0 {
		t.Fatalf("info handler received debug record: %s", infoBuf.String())
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler missed debug record")
	}
}

func TestTeeLoggerCarriesAttrsAndGroups(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))
	logger := TeeLogger(base, slog.NewJSONHandler(&teeBuf, nil)).
		With(slog.String("key", "value")).
		WithGroup("scan")

	logger.Info("teed", slog.String("field", "x"))

	for name, buf := range map[string]*bytes.Buffer{"base": &baseBuf, "tee": &teeBuf} {
		out := buf.Bytes()
		if !bytes.Contains(out, []byte(`"key":"value"`)) {
			t.Errorf("%s output missing attr: %s", name, out)
		}
		if !bytes.Contains(out, []byte(`"scan":{"field":"x"}`)) {
			t.Errorf("%s output missing group: %s", name, out)
		}
	}
}

func TestTeeLoggerNilBase(t *testing.T) {
	var buf bytes.Buffer
	TeeLogger(nil, slog.NewJSONHandler(&buf, nil)).Info("no base")
	if buf.Len() == 0 {
		t.Fatal("expected output in tee buffer")
	}
}
