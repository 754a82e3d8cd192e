package convlog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLogAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_conversaciones.txt")
	at := time.Date(2026, time.October, 19, 14, 5, 33, 0, time.UTC)
	l := New(path).WithClock(func() time.Time { return at })

	if err := l.Log(RoleCustomer, "Ana Torres", "pago 500\nel viernes"); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if err := l.Log(RoleAgent, "Ana Torres", "Registro exitoso"); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "[2026-10-19 14:05] CLIENTE - Ana Torres: pago 500 el viernes\n" +
		"[2026-10-19 14:05] AGENTE - Ana Torres: Registro exitoso\n"
	if string(got) != want {
		t.Errorf("log contents:\n%s\nwant:\n%s", got, want)
	}
}

func TestLogConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l := New(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Log(RoleCustomer, "x", "hola"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, b := range got {
		if b == '\n' {
			lines++
		}
	}
	if lines != 20 {
		t.Errorf("got %d lines, want 20", lines)
	}
}

func TestLogBadPath(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing", "log.txt"))
	if err := l.Log(RoleAgent, "x", "y"); err == nil {
		t.Error("expected error for missing directory")
	}
}
