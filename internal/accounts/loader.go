package accounts

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LineError records a credential line that could not be parsed
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// LoadResult holds the outcome of reading a credential list
type LoadResult struct {
	Accounts   []Account
	TotalLines int
	Skipped    []LineError
	Duplicates int
}

// LoadFromFile reads one init-data line per account, in file order.
// A missing file is an error; bad lines are reported in Skipped and do not abort the load.
func LoadFromFile(path string) (*LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open account list: %w", err)
	}
	defer file.Close()

	result := &LoadResult{}
	seen := make(map[int64]bool)

	scanner := bufio.NewScanner(file)
	// Init data lines can exceed the default 64KB token limit
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.ReplaceAll(scanner.Text(), "\r", ""))
		if line == "" {
			continue
		}
		result.TotalLines++

		account, err := ParseInitData(line)
		if err != nil {
			result.Skipped = append(result.Skipped, LineError{Line: lineNo, Err: err})
			continue
		}

		// Duplicate ids would share one token and one proxy
		if seen[account.ID] {
			result.Duplicates++
			continue
		}
		seen[account.ID] = true

		result.Accounts = append(result.Accounts, account)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account list: %w", err)
	}

	return result, nil
}
