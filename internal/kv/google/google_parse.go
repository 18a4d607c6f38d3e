package google

import (
	"fmt"
	"strings"
)

// findRow returns the zero-based index of the first row whose first cell
// equals key, or -1.
func findRow(rows [][]interface{}, key string) int {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == key {
			return i
		}
	}
	return -1
}

// cellValue returns the second cell of a row as text, empty when absent.
func cellValue(row []interface{}) string {
	if len(row) < 2 || row[1] == nil {
		return ""
	}
	return fmt.Sprint(row[1])
}

func rowKeys(rows [][]interface{}) []string {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		k := strings.TrimSpace(fmt.Sprint(row[0]))
		if k == "" {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}
