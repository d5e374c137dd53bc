package archive

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ValidationResult contains the results of checking an archive against a
// list of identifiers that should be present.
type ValidationResult struct {
	Valid   bool     // true if every identifier has a non-empty entry
	Checked int      // number of identifiers checked
	Missing int      // identifiers with no archive entry
	Empty   int      // identifiers whose entry has zero bytes
	Errors  []string // detailed error messages
}

// ValidateZip checks that every id has a non-empty entry in the zip
// container. Entry payloads are not read; only the central directory is
// consulted.
func ValidateZip(z *Zip, ids []string) (*ValidationResult, error) {
	entries, err := z.Entries()
	if err != nil {
		return nil, err
	}

	sizes := make(map[string]int64, len(entries))
	for _, e := range entries {
		sizes[e.Name] = e.Size
	}

	result := &ValidationResult{Valid: true, Checked: len(ids), Errors: make([]string, 0)}
	for _, id := range ids {
		size, ok := sizes[id]
		if !ok {
			result.Valid = false
			result.Missing++
			result.Errors = append(result.Errors, fmt.Sprintf("entry missing: %s", id))
			continue
		}
		if size == 0 {
			result.Valid = false
			result.Empty++
			result.Errors = append(result.Errors, fmt.Sprintf("entry empty: %s", id))
		}
	}
	return result, nil
}

// ValidateBucket checks that every id exists as a non-empty object in the
// bucket. Object data is not downloaded; only attributes are read.
func ValidateBucket(ctx context.Context, bucket *blob.Bucket, ids []string) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true, Checked: len(ids), Errors: make([]string, 0)}

	for _, id := range ids {
		attrs, err := bucket.Attributes(ctx, id)
		if err != nil {
			if gcerrors.Code(err) == gcerrors.NotFound {
				result.Valid = false
				result.Missing++
				result.Errors = append(result.Errors, fmt.Sprintf("entry missing: %s", id))
				continue
			}
			return nil, fmt.Errorf("archive: check %s: %w", id, err)
		}
		if attrs.Size == 0 {
			result.Valid = false
			result.Empty++
			result.Errors = append(result.Errors, fmt.Sprintf("entry empty: %s", id))
		}
	}
	return result, nil
}
