package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		isJSON      bool
		want        map[string]string
	}{
		{
			name:   "json with numeric amount",
			body:   `{"date":"2025-01-01","amount":12.50,"note":"  lunch  "}`,
			isJSON: true,
			want:   map[string]string{"date": "2025-01-01", "amount": "12.50", "note": "lunch", "missing": ""},
		},
		{
			name:   "json with string amount",
			body:   `{"amount":"7,5","position":2,"tags":["x"],"gone":null}`,
			isJSON: true,
			want:   map[string]string{"amount": "7,5", "position": "2", "tags": "", "gone": ""},
		},
		{
			name:        "json declared with charset",
			body:        ` {"name":"Pets"}`,
			contentType: "application/json; charset=utf-8",
			isJSON:      true,
			want:        map[string]string{"name": "Pets"},
		},
		{
			name:        "form encoded",
			body:        "date=2025-02-01&category=Transport&amount=20",
			contentType: "application/x-www-form-urlencoded",
			want:        map[string]string{"date": "2025-02-01", "category": "Transport", "amount": "20"},
		},
		{
			name: "control characters stripped",
			body: "note=a%00b%07c%09d",
			want: map[string]string{"note": "abc\td"},
		},
		{
			name: "empty body",
			body: "  ",
			want: map[string]string{"date": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			b, err := readBody(r)
			require.NoError(t, err)
			assert.Equal(t, tt.isJSON, b.isJSON)
			for k, v := range tt.want {
				assert.Equal(t, v, b.value(k), k)
			}
		})
	}
}

func TestDecodeBody_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"date":`, http.StatusBadRequest},
		{"json array", `[1]`, http.StatusBadRequest},
		{"malformed form", "a=%zz", http.StatusBadRequest},
		{"too large", "note=" + strings.Repeat("x", maxBodyBytes), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if strings.HasPrefix(tt.body, "[") {
				r.Header.Set("Content-Type", "application/json")
			}
			rr := httptest.NewRecorder()
			_, ok := decodeBody(rr, r)
			assert.False(t, ok)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestParseDashboardQuery(t *testing.T) {
	tests := []struct {
		query   string
		wantErr bool
	}{
		{"", false},
		{"period=weekly&month=2025-01", false},
		{"period=DAILY", false},
		{"period=yearly", true},
		{"month=2025-1", true},
		{"month=January", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard?"+tt.query, nil)
			_, err := parseDashboardQuery(r)
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}
