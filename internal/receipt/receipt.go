// Package receipt turns recognized receipt text into a suggested expense.
// Text recognition itself is delegated to an Extractor.
package receipt

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

const (
	// minTotal is the smallest amount accepted as a receipt total.
	minTotal money.Money = 1000

	// Item prices are accepted strictly between these bounds.
	minItemPrice money.Money = 500
	maxItemPrice money.Money = 1_000_000
)

var (
	// Grouped thousands ("150.000", "1,250,000") or a plain run of digits,
	// either with an optional two-digit fraction.
	numberPattern = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d+(?:[.,]\d{2})?`)
	yearPattern   = regexp.MustCompile(`\b20\d{2}\b`)
)

// Extractor recognizes the text on a receipt image.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, image []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// TextExtractor treats its input as already-recognized UTF-8 text.
type TextExtractor struct{}

func (TextExtractor) Extract(_ context.Context, image []byte) (string, error) {
	if !utf8.Valid(image) {
		return "", fmt.Errorf("receipt text is not valid UTF-8")
	}
	return string(image), nil
}

// Item is one priced line on a receipt.
type Item struct {
	Name  string
	Price money.Money
}

// Suggestion is what a receipt suggests about an expense. Fields the
// receipt did not reveal are left zero.
type Suggestion struct {
	Total    money.Money
	Merchant string
	Items    []Item
	Image    []byte
}

// IsEmpty reports whether nothing useful was found.
func (s Suggestion) IsEmpty() bool {
	return s.Total == 0 && s.Merchant == "" && len(s.Items) == 0
}

// Apply pre-fills the empty fields of an expense form. Fields the user has
// already filled are never overwritten.
func (s Suggestion) Apply(in *models.ExpenseInput) {
	if strings.TrimSpace(in.Title) == "" && s.Merchant != "" {
		in.Title = s.Merchant
	}
	if in.Amount == 0 && s.Total > 0 {
		in.Amount = s.Total
	}
	if len(in.ReceiptImage) == 0 && len(s.Image) > 0 {
		in.ReceiptImage = s.Image
	}
	if strings.TrimSpace(in.Notes) == "" && len(s.Items) > 0 {
		lines := make([]string, len(s.Items))
		for i, item := range s.Items {
			lines[i] = item.Name + " " + item.Price.Format()
		}
		in.Notes = strings.Join(lines, "\n")
	}
}

// Scan recognizes the text on image and parses it.
func Scan(ctx context.Context, extractor Extractor, image []byte) (Suggestion, error) {
	text, err := extractor.Extract(ctx, image)
	if err != nil {
		return Suggestion{Image: image}, fmt.Errorf("failed to extract receipt text: %w", err)
	}
	s := Parse(text)
	s.Image = image
	return s, nil
}

// Parse applies the receipt heuristics to recognized text:
//   - the total is the last TOTAL or JUMLAH line whose first amount exceeds 1000
//   - the merchant is the first line that is not a header, a date, or only digits
//   - items are other lines whose first amount lies between 500 and 1,000,000
func Parse(text string) Suggestion {
	var s Suggestion

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)

		if isTotalLine(upper) {
			if amount, ok := firstAmount(line); ok && amount > minTotal {
				s.Total = amount
			}
			continue
		}

		if s.Merchant == "" && !isHeaderLine(upper) && !isDateLine(line) && !isNumericLine(line) {
			s.Merchant = line
		}

		if item, ok := parseItem(line); ok {
			s.Items = append(s.Items, item)
		}
	}

	return s
}

func isTotalLine(upper string) bool {
	return strings.Contains(upper, "TOTAL") || strings.Contains(upper, "JUMLAH")
}

func isHeaderLine(upper string) bool {
	return strings.Contains(upper, "RECEIPT") || strings.Contains(upper, "STRUK")
}

func isDateLine(line string) bool {
	return strings.Contains(line, "/") && yearPattern.MatchString(line)
}

func isNumericLine(line string) bool {
	for _, r := range line {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != ' ' {
			return false
		}
	}
	return true
}

// firstAmount returns the first amount on the line, in whole units.
func firstAmount(line string) (money.Money, bool) {
	loc := numberPattern.FindStringIndex(line)
	if loc == nil {
		return 0, false
	}
	amount, err := parseAmount(line[loc[0]:loc[1]])
	if err != nil {
		return 0, false
	}
	return amount, true
}

// parseAmount drops a two-digit fraction and strips thousands separators.
func parseAmount(s string) (money.Money, error) {
	if n := len(s); n > 3 && (s[n-3] == '.' || s[n-3] == ',') {
		s = s[:n-3]
	}
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return money.Money(v), nil
}

func parseItem(line string) (Item, bool) {
	loc := numberPattern.FindStringIndex(line)
	if loc == nil {
		return Item{}, false
	}
	price, err := parseAmount(line[loc[0]:loc[1]])
	if err != nil || price <= minItemPrice || price >= maxItemPrice {
		return Item{}, false
	}

	name := strings.TrimSpace(line[:loc[0]] + line[loc[1]:])
	name = strings.TrimSpace(strings.TrimSuffix(name, money.Grapheme))
	name = strings.Trim(name, ".,:-@ ")
	if utf8.RuneCountInString(name) <= 2 {
		return Item{}, false
	}
	return Item{Name: name, Price: price}, true
}
