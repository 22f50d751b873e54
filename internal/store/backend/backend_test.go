package backend

import (
	"context"
	"testing"

	"github.com/gigboard/gigboard-api/internal/config"
	"github.com/gigboard/gigboard-api/internal/store/memory"
)

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), &config.Config{StoreDriver: config.StoreMemory, StoreMaxAttempts: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), &config.Config{StoreDriver: "cassandra"}, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenFirestoreNeedsApp(t *testing.T) {
	if _, err := Open(context.Background(), &config.Config{StoreDriver: config.StoreFirestore}, nil); err == nil {
		t.Fatal("expected error without firebase app")
	}
}

func TestNeedsFirebase(t *testing.T) {
	if NeedsFirebase(&config.Config{StoreDriver: config.StorePostgres, AuthProvider: config.AuthJWT}) {
		t.Fatal("postgres with jwt needs no firebase")
	}
	if !NeedsFirebase(&config.Config{StoreDriver: config.StoreMemory, AuthProvider: config.AuthFirebase}) {
		t.Fatal("firebase auth needs an app")
	}
}
