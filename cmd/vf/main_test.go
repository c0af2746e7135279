package main

import (
	"context"
	"sync"
	"testing"

	"volunteerflow/internal/app"
)

var cliSetup sync.Once

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	cliSetup.Do(func() {
		addPersistentFlags()
		registerCommands()
	})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestAPIKeyCommands(t *testing.T) {
	ws := t.TempDir()
	if err := runCLI(t, "init", "--seed", "--workspace", ws); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := runCLI(t, "apikey", "create", "--name", "ci", "--workspace", ws); err != nil {
		t.Fatalf("create key: %v", err)
	}

	conn, eng, err := app.Open(ws)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	defer conn.Close()
	keys, err := eng.Repo.ListAPIKeys(context.Background(), 0)
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(keys) != 1 || keys[0].Name != "ci" || keys[0].UserID != 1 {
		t.Fatalf("unexpected keys after create: %+v", keys)
	}

	if err := runCLI(t, "apikey", "list", "--workspace", ws); err != nil {
		t.Fatalf("list command: %v", err)
	}
	if err := runCLI(t, "apikey", "revoke", keys[0].ID, "--workspace", ws); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := runCLI(t, "apikey", "revoke", keys[0].ID, "--workspace", ws); err == nil {
		t.Fatal("expected an error revoking an already revoked key")
	}
}
