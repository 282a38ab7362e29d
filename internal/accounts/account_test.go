package accounts

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildInitData produces a credential line the way the mini app exports it
func buildInitData(userJSON string) string {
	return "query_id=AAHdF6IQAAAAAN0XohDhrOrc&user=" + url.QueryEscape(userJSON) +
		"&auth_date=1716922846&hash=89d6079ad6762351f38c6dbbc41bb53048019256a9443988af7a48bcad16ba31"
}

func TestParseInitData(t *testing.T) {
	raw := buildInitData(`{"id":279058397,"first_name":"Vlad","last_name":"","username":"vdkfrost","language_code":"en"}`)

	account, err := ParseInitData(raw)
	if err != nil {
		t.Fatalf("Failed to parse init data: %v", err)
	}

	if account.ID != 279058397 {
		t.Errorf("Expected id 279058397, got %d", account.ID)
	}
	if account.DisplayName != "Vlad" {
		t.Errorf("Expected display name 'Vlad', got '%s'", account.DisplayName)
	}
	if account.Username != "vdkfrost" {
		t.Errorf("Expected username 'vdkfrost', got '%s'", account.Username)
	}
	if account.InitData != raw {
		t.Error("Expected raw init data to be kept verbatim")
	}
	if account.Key() != "279058397" {
		t.Errorf("Expected key '279058397', got '%s'", account.Key())
	}
}

func TestParseInitDataDoubleEncoded(t *testing.T) {
	userJSON := `{"id":42,"first_name":"Ann"}`
	raw := "user=" + url.QueryEscape(url.QueryEscape(userJSON)) + "&auth_date=1"

	account, err := ParseInitData(raw)
	if err != nil {
		t.Fatalf("Failed to parse double encoded init data: %v", err)
	}
	if account.ID != 42 || account.DisplayName != "Ann" {
		t.Errorf("Expected 42/Ann, got %d/%s", account.ID, account.DisplayName)
	}
}

func TestParseInitDataErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "   ", ErrEmptyInitData},
		{"no user", "query_id=abc&auth_date=1", ErrMissingUser},
		{"no id", "user=" + url.QueryEscape(`{"first_name":"x"}`), ErrMissingUserID},
		{"bad json", "user=" + url.QueryEscape(`{"id":`), nil},
		{"non numeric id", "user=" + url.QueryEscape(`{"id":"abc"}`), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseInitData(tc.raw)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "data.txt")

	lines := []string{
		buildInitData(`{"id":1,"first_name":"One"}`),
		"",
		"garbage-line",
		buildInitData(`{"id":2,"first_name":"Two"}`) + "\r",
		buildInitData(`{"id":1,"first_name":"One again"}`),
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		t.Fatalf("Failed to write data file: %v", err)
	}

	result, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load accounts: %v", err)
	}

	if len(result.Accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(result.Accounts))
	}
	if result.Accounts[0].ID != 1 || result.Accounts[1].ID != 2 {
		t.Errorf("Expected file order 1,2, got %d,%d", result.Accounts[0].ID, result.Accounts[1].ID)
	}
	if strings.HasSuffix(result.Accounts[1].InitData, "\r") {
		t.Error("Expected carriage return to be stripped")
	}
	if result.TotalLines != 4 {
		t.Errorf("Expected 4 non-empty lines, got %d", result.TotalLines)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Line != 3 {
		t.Errorf("Expected line 3 skipped, got %+v", result.Skipped)
	}
	if result.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate, got %d", result.Duplicates)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing account list")
	}
}
