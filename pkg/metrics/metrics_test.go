package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "holdings_test_total",
		Help: "Test counter",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	path := filepath.Join(t.TempDir(), "textfile", "holdings.prom")
	if err := writeTextfile(path, reg); err != nil {
		t.Fatalf("writeTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "holdings_test_total 3") {
		t.Errorf("textfile missing counter sample:\n%s", data)
	}
}

func TestWriteTextfile_EmptyPath(t *testing.T) {
	if err := writeTextfile("", prometheus.NewRegistry()); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestWriteTextfile_DefaultGatherer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected metrics file to exist: %v", err)
	}
}
