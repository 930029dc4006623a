package catalog

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"

	"github.com/desertthunder/mcb/internal/models"
)

//go:embed genres.csv
var genresCSV []byte

// Genres returns the bundled genre table, header first. It backs the static Genres source.
func Genres() (models.RowSet, error) {
	reader := csv.NewReader(bytes.NewReader(genresCSV))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled genres: %w", err)
	}
	return models.RowSet(records), nil
}
