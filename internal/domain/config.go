package domain

// KeyPrefix namespaces every key querygate writes to the store.
const KeyPrefix = "querygate:"

// Default free-text fields when neither the query nor the tenant names any.
const (
	SearchableMetadataField    = "searchable_metadata.*"
	ExactMatchingMetadataField = "exact_matching_metadata^5"
)

// DefaultSearchableFields returns the free-text fields used when none are given.
func DefaultSearchableFields() []string {
	return []string{SearchableMetadataField, ExactMatchingMetadataField}
}
