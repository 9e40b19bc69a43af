package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	"Foodgram-Backend/pkg/ingredient"

	"gorm.io/gorm"
)

// SeedIngredients loads the ingredient catalog from a CSV file with
// rows of the form "name,measurement_unit". Rows already present are
// skipped, so re-running the seed is safe.
func SeedIngredients(db *gorm.DB, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ingredients file: %w", err)
	}
	defer file.Close()

	repository := ingredient.NewIngredientRepository(db)
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	ctx := context.Background()
	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read ingredients file: %w", err)
		}

		if _, err := repository.GetOrCreateIngredient(ctx, record[0], record[1]); err != nil {
			return fmt.Errorf("seed ingredient %q: %w", record[0], err)
		}
		imported++
	}

	log.Printf("Ingredient seed complete, %d rows processed", imported)
	return nil
}
