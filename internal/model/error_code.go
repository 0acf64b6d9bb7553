package model

// ErrorCode identifies why a field of a categorization result could not be filled.
type ErrorCode string

// Categorization error codes. CodeNone means no error.
const (
	CodeNone                       ErrorCode = ""
	CodeCSVSubcategoryLookupFailed ErrorCode = "CSV_SUBCATEGORY_LOOKUP_FAILED"
	CodeCSVPayoreeLookupFailed     ErrorCode = "CSV_PAYOREE_LOOKUP_FAILED"
	CodeAISubcategoryLookupFailed  ErrorCode = "AI_SUBCATEGORY_LOOKUP_FAILED"
	CodeAIPayoreeLookupFailed      ErrorCode = "AI_PAYOREE_LOOKUP_FAILED"
	CodeAINoSubcategorySuggestion  ErrorCode = "AI_NO_SUBCATEGORY_SUGGESTION"
	CodeAINoPayoreeSuggestion      ErrorCode = "AI_NO_PAYOREE_SUGGESTION"
	CodeMultipleSubcategoriesFound ErrorCode = "MULTIPLE_SUBCATEGORIES_FOUND"
	CodeMultipleMatchesFound       ErrorCode = "MULTIPLE_MATCHES_FOUND"
	CodeSystemError                ErrorCode = "SYSTEM_ERROR"
)

var codeDescriptions = map[ErrorCode]string{
	CodeCSVSubcategoryLookupFailed: "Category from the import file does not exist in the catalog",
	CodeCSVPayoreeLookupFailed:     "Payoree from the import file does not exist in the catalog",
	CodeAISubcategoryLookupFailed:  "Suggested category no longer exists in the catalog",
	CodeAIPayoreeLookupFailed:      "Suggested payoree no longer exists in the catalog",
	CodeAINoSubcategorySuggestion:  "AI could not suggest a subcategory",
	CodeAINoPayoreeSuggestion:      "AI could not suggest a payoree",
	CodeMultipleSubcategoriesFound: "Category name matches more than one catalog category",
	CodeMultipleMatchesFound:       "Name matches more than one catalog entry",
	CodeSystemError:                "A storage or system failure prevented categorization",
}

// AllCodes returns every known code in declaration order.
func AllCodes() []ErrorCode {
	return []ErrorCode{
		CodeCSVSubcategoryLookupFailed,
		CodeCSVPayoreeLookupFailed,
		CodeAISubcategoryLookupFailed,
		CodeAIPayoreeLookupFailed,
		CodeAINoSubcategorySuggestion,
		CodeAINoPayoreeSuggestion,
		CodeMultipleSubcategoriesFound,
		CodeMultipleMatchesFound,
		CodeSystemError,
	}
}

// Description returns the human-readable sentence for the code.
// Unknown codes describe themselves.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return string(c)
}

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	return string(c)
}

// Issue pairs an error code with its description for display.
type Issue struct {
	Code        ErrorCode `json:"code"`
	Description string    `json:"description"`
}
