package google

import (
	"context"
	"errors"
	"strings"
	"testing"

	"spendlog/internal/kv"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing spreadsheet id" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "test-id",
		CredentialsFile: t.TempDir() + "/missing.json",
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestConfigCredentials_InlineWins(t *testing.T) {
	cfg := Config{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/nonexistent.json"}
	got, err := cfg.credentials()
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if string(got) != cfg.CredentialsJSON {
		t.Errorf("credentials = %s, want inline JSON", got)
	}
}

func TestClient_UninitializedService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: DefaultSheetName}
	ctx := context.Background()

	if _, _, err := c.Get(ctx, kv.RecordsKey); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
	if err := c.Set(ctx, kv.RecordsKey, []byte("[]")); err == nil {
		t.Fatal("expected error from Set without service")
	}
	if _, _, err := c.Get(ctx, ""); !errors.Is(err, kv.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestClient_SetRejectsOversizedValue(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: DefaultSheetName}
	ctx := context.Background()

	big := "[" + strings.Repeat(`"x",`, MaxCellChars/4) + `"x"]`
	err := c.Set(ctx, kv.RecordsKey, []byte(big))
	if !errors.Is(err, ErrCellTooLarge) {
		t.Fatalf("expected ErrCellTooLarge, got %v", err)
	}

	// Multi-byte characters count once each.
	fits := strings.Repeat("é", MaxCellChars)
	if err := c.Set(ctx, kv.RecordsKey, []byte(fits)); errors.Is(err, ErrCellTooLarge) {
		t.Fatalf("value of %d characters should pass the size check", MaxCellChars)
	}
}
