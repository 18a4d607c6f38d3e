//go:build integration

package google

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// Needs a real spreadsheet shared with the service account:
// go test -tags=integration ./internal/kv/google
func TestIntegration_SetGetRoundTrip(t *testing.T) {
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := New(ctx, Config{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := fmt.Sprintf("integration-%d", time.Now().UnixNano())
	for _, value := range []string{`["first"]`, `["second"]`} {
		if err := c.Set(ctx, key, []byte(value)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, found, err := c.Get(ctx, key)
		if err != nil || !found || string(got) != value {
			t.Fatalf("Get = %q found=%v err=%v, want %q", got, found, err, value)
		}
	}
}
