package resolver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fjacquet/merchant-resolver/internal/canonical"
	"fjacquet/merchant-resolver/internal/models"
)

const systemInstructions = "You are a precision data-extraction assistant for financial transactions. " +
	"For each transaction string provided, extract ONLY the merchant/trade name that a human " +
	"would recognize on a receipt (brand or business name). Follow rules strictly:\n" +
	" - Return ONLY the merchant/trade name; no categories, no locations, no states, no ZIP codes.\n" +
	" - For Zelle transactions, the output format MUST BE 'Zelle To [Recipient Name]' or 'Zelle From [Sender Name]'.\n" +
	" - For other peer-to-peer platforms (Venmo, Cash App, PayPal, Apple Cash, Google Pay), return the counterparty's name or handle if available; otherwise, return the platform name.\n" +
	" - Remove words like: payment, purchase, debit/credit, transfer, POS, order/invoice/ref IDs.\n" +
	" - Remove city/state, store numbers, suite/unit numbers, phone numbers, dates, and URLs.\n" +
	" - Normalize variants (e.g., 'AMZN Mktp', 'Amazon Prime' -> 'Amazon').\n" +
	" - If truly unknown after careful reading, return '" + models.UnresolvedSentinel + "'.\n" +
	"Output must strictly be valid JSON as requested."

// buildPrompt numbers the lines and states the response contract.
func buildPrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString("Extract ONLY the merchant/trade name for each transaction line below. ")
	sb.WriteString(`Return a JSON object: {"merchants": [<merchant for #1>, <merchant for #2>, ...]}. `)
	sb.WriteString("The array length MUST equal the number of lines (")
	sb.WriteString(strconv.Itoa(len(texts)))
	sb.WriteString("). No prose.\n\nTRANSACTIONS:\n")
	for i, t := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.TrimSpace(t))
	}
	return sb.String()
}

type merchantsResponse struct {
	Merchants []any `json:"merchants"`
}

// parseMerchants decodes a model response into exactly n names. Text that
// holds no JSON at all is an error so the caller can retry; a decodable
// response with the wrong length or non-string entries is padded, truncated
// or coerced to the sentinel instead.
func parseMerchants(raw string, n int) ([]string, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var items []any
	if strings.HasPrefix(clean, "{") {
		var obj merchantsResponse
		if err := json.Unmarshal([]byte(clean), &obj); err != nil {
			return nil, fmt.Errorf("unmarshal model response: %w", err)
		}
		items = obj.Merchants
	} else if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %w", err)
	}
	return coerce(items, n), nil
}

// coerce pads with the sentinel or truncates to n entries.
func coerce(items []any, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = models.UnresolvedSentinel
		if i >= len(items) {
			continue
		}
		if s, ok := items[i].(string); ok {
			out[i] = canonical.Clean(s)
		}
	}
	return out
}

// cleanModelJSON strips Markdown fences and any prose around the outermost
// JSON object or array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return ""
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	obj := strings.Index(s, "{")
	arr := strings.Index(s, "[")
	open, closer := obj, "}"
	if obj == -1 || (arr != -1 && arr < obj) {
		open, closer = arr, "]"
	}
	if open == -1 {
		return ""
	}
	end := strings.LastIndex(s, closer)
	if end < open {
		return ""
	}
	return strings.TrimSpace(s[open : end+1])
}
