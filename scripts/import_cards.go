// Command import_cards converts a CSV card export into the JSON card
// database the server reads at startup.
//
// Usage: go run scripts/import_cards.go [export.csv] [cards.json]
//
// The expected CSV columns are name, set, type, mana_cost, oracle_text,
// power, toughness, image, in that order, with a header row.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/magicworkstation/workstation-server-go/internal/catalog"
)

func main() {
	csvPath := "data/cards_export.csv"
	outPath := "data/cards.json"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	absPath, err := filepath.Abs(csvPath)
	if err != nil {
		log.Fatalf("Failed to resolve path: %v", err)
	}
	fmt.Println("=== Card Database Import ===")
	fmt.Printf("CSV file: %s\n", absPath)

	f, err := os.Open(absPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(rows) < 2 {
		log.Fatalf("CSV contains no card rows")
	}

	field := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	cards := make(map[string]catalog.CardInfo, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		name := field(row, 0)
		if name == "" {
			skipped++
			continue
		}
		id := catalog.NormalizeID(name)
		cards[id] = catalog.CardInfo{
			ID:         id,
			Name:       name,
			Set:        field(row, 1),
			Type:       field(row, 2),
			ManaCost:   field(row, 3),
			OracleText: field(row, 4),
			Power:      field(row, 5),
			Toughness:  field(row, 6),
			Image:      field(row, 7),
		}
	}

	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode card database: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write card database: %v", err)
	}

	fmt.Printf("Imported %d cards (%d rows skipped) -> %s\n", len(cards), skipped, outPath)
}
