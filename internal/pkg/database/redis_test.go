package database

import "testing"

func TestNewRedisEmptyURLDisablesLock(t *testing.T) {
	client, err := NewRedis("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client for empty url")
	}
	CloseRedis(client)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	if _, err := NewRedis("mysql://nope"); err == nil {
		t.Fatal("expected error for non-redis url")
	}
}
