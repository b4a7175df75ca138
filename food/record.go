package food

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"

	"github.com/swiftbyte/backend/attr"
)

// RecordOf converts an entity to the record stored in the table, using the
// entity's JSON field names.
func RecordOf(v any) (attr.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	var rec attr.Record
	if err = json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return rec, nil
}

// Redact returns a copy of rec without credentials.
func Redact(rec attr.Record) attr.Record {
	out := maps.Clone(rec)
	delete(out, "password")
	return out
}

// AverageRating is the mean of ratings rounded to two decimal places, or
// Unrated when there are none.
func AverageRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return Unrated
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return math.Round(sum/float64(len(ratings))*100) / 100
}
