package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDerivedHandlersShareTheLogFile(t *testing.T) {
	dir := t.TempDir()

	h, err := NewDailyFileHandler(dir, &slog.HandlerOptions{Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("NewDailyFileHandler: %v", err)
	}

	derived, ok := h.WithAttrs([]slog.Attr{slog.String("component", "extractor")}).(*DailyFileHandler)
	if !ok {
		t.Fatalf("WithAttrs returned %T, want *DailyFileHandler", derived)
	}
	if derived.core != h.core {
		t.Fatal("Derived handler does not share the parent's file state")
	}

	grouped, ok := h.WithGroup("request").(*DailyFileHandler)
	if !ok {
		t.Fatalf("WithGroup returned %T, want *DailyFileHandler", grouped)
	}
	if grouped.core != h.core {
		t.Fatal("Grouped handler does not share the parent's file state")
	}

	parent := slog.New(h)
	child := slog.New(derived)
	parent.Info("from the parent")
	child.Info("from the child")

	fileName := fmt.Sprintf("senagpt-%s.log", time.Now().Format("2006-01-02"))
	content, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("Reading log file: %v", err)
	}
	for _, want := range []string{"from the parent", "from the child"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("Log file is missing %q:\n%s", want, content)
		}
	}
}
