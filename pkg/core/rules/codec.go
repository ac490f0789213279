package rules

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agentic_accounting/pkg/models"
)

// The rules file is plaintext so the bookkeeper can read and hand-edit it:
// blocks of Key: value lines under a === ACCOUNTING RULE: <name> === header,
// one blank line between blocks. Field order is fixed so rendering the same
// rules always produces the same bytes.

const (
	blockPrefix = "=== ACCOUNTING RULE: "
	blockSuffix = " ==="

	timeLayout = time.RFC3339

	// maxLineBytes bounds one rule line. Condition and action text is
	// sanitized onto a single line, so hand-written prose can run long.
	maxLineBytes = 1024 * 1024
)

// Render serializes rules in their given order.
func Render(rules []models.AccountingRule) []byte {
	var b bytes.Buffer
	for i, r := range rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s%s%s\n", blockPrefix, r.Name, blockSuffix)
		fmt.Fprintf(&b, "Created: %s\n", r.Created.UTC().Format(timeLayout))
		fmt.Fprintf(&b, "Updated: %s\n", r.Updated.UTC().Format(timeLayout))
		fmt.Fprintf(&b, "Priority: %d\n", r.Priority)
		fmt.Fprintf(&b, "Condition: %s\n", sanitize(r.Condition))
		fmt.Fprintf(&b, "Action: %s\n", sanitize(r.Action))
		fmt.Fprintf(&b, "Account Code: %s\n", r.AccountCode)
		fmt.Fprintf(&b, "Account Type: %s\n", r.AccountType)
		fmt.Fprintf(&b, "GST Handling: %s\n", r.GSTHandling)
		if r.Notes != "" {
			fmt.Fprintf(&b, "Notes: %s\n", sanitize(r.Notes))
		}
	}
	return b.Bytes()
}

// sanitize keeps free-text fields on one line.
func sanitize(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ")), " ")
}

// Parse reads rule blocks back. Unknown keys are ignored and blocks whose
// header or timestamps cannot be read are reported via the warnings list
// rather than failing the whole file, matching the journal loader's
// tolerance for hand-edited data.
func Parse(data []byte) (parsed []models.AccountingRule, warnings []string) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var current *models.AccountingRule
	flush := func() {
		if current == nil {
			return
		}
		if current.Name == "" {
			warnings = append(warnings, "dropping rule block with empty name")
		} else {
			parsed = append(parsed, *current)
		}
		current = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, blockPrefix) {
			flush()
			name := strings.TrimSuffix(strings.TrimPrefix(line, blockPrefix), blockSuffix)
			current = &models.AccountingRule{Name: strings.TrimSpace(name)}
			continue
		}
		if current == nil {
			warnings = append(warnings, fmt.Sprintf("line %d outside any rule block: %q", lineNo, line))
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			warnings = append(warnings, fmt.Sprintf("line %d is not a Key: value pair: %q", lineNo, line))
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Created":
			if t, err := time.Parse(timeLayout, value); err == nil {
				current.Created = t.UTC()
			} else {
				warnings = append(warnings, fmt.Sprintf("rule %q: bad Created timestamp %q", current.Name, value))
			}
		case "Updated":
			if t, err := time.Parse(timeLayout, value); err == nil {
				current.Updated = t.UTC()
			} else {
				warnings = append(warnings, fmt.Sprintf("rule %q: bad Updated timestamp %q", current.Name, value))
			}
		case "Priority":
			if n, err := strconv.Atoi(value); err == nil {
				current.Priority = n
			} else {
				warnings = append(warnings, fmt.Sprintf("rule %q: bad Priority %q", current.Name, value))
			}
		case "Condition":
			current.Condition = value
		case "Action":
			current.Action = value
		case "Account Code":
			current.AccountCode = value
		case "Account Type":
			current.AccountType = models.AccountType(value)
		case "GST Handling":
			current.GSTHandling = models.GSTTreatment(value)
		case "Notes":
			current.Notes = value
		default:
			// Hand-edited files accumulate stray keys; keep loading.
		}
	}
	if err := scanner.Err(); err != nil {
		warnings = append(warnings, fmt.Sprintf("stopped reading after line %d: %v; later rules were not loaded", lineNo, err))
	}
	flush()
	return parsed, warnings
}
