package models

// Category classifies a document at ingestion time. A subset of categories is
// workflow-requiring: documents of those categories must live in a folder
// that carries an approval workflow binding. Exactly one category is
// workflow-initiating: its first upload into a folder creates the binding.
type Category string

const (
	// CategoryTender is the workflow-initiating category. Uploading a tender
	// seeds a new approval workflow on the target folder.
	CategoryTender Category = "tender"

	// Workflow-requiring categories. These may only be filed into a folder
	// whose workflow already exists.
	CategoryContract  Category = "contract"
	CategoryAmendment Category = "amendment"

	// Free categories - folder optional, no workflow involvement.
	CategoryCorrespondence Category = "correspondence"
	CategoryReport         Category = "report"
	CategoryGeneral        Category = "general"
)

var allCategories = map[Category]struct{}{
	CategoryTender:         {},
	CategoryContract:       {},
	CategoryAmendment:      {},
	CategoryCorrespondence: {},
	CategoryReport:         {},
	CategoryGeneral:        {},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := allCategories[c]
	return ok
}

// Initiating reports whether an upload of this category seeds a new workflow.
func (c Category) Initiating() bool {
	return c == CategoryTender
}

// WorkflowRequiring reports whether documents of this category must be filed
// into a workflow-bound folder.
func (c Category) WorkflowRequiring() bool {
	switch c {
	case CategoryTender, CategoryContract, CategoryAmendment:
		return true
	default:
		return false
	}
}
