package wire

// Kind identifies the operation a request or notification carries.
//
// The vocabulary is closed: peers reject frames whose kind they do not
// recognize with a failure response rather than guessing.
type Kind string

const (
	// KindGetPageData asks an agent to extract the current page's content.
	KindGetPageData Kind = "GET_PAGE_DATA"

	// KindSavePage asks the hub to capture and persist the page of a tab.
	KindSavePage Kind = "SAVE_PAGE"

	// KindStartAreaSelection asks an agent to arm its area-selection overlay.
	KindStartAreaSelection Kind = "START_AREA_SELECTION"

	// KindCaptureAreaFromContent is sent by an agent when an area selection
	// commits; the hub crops and persists the captured region.
	KindCaptureAreaFromContent Kind = "CAPTURE_AREA_FROM_CONTENT"

	// KindGetAllSavedContent asks the hub for every saved content item.
	KindGetAllSavedContent Kind = "GET_ALL_SAVED_CONTENT"

	// KindGetFilteredItemsByTag asks the hub for the items carrying a tag.
	KindGetFilteredItemsByTag Kind = "GET_FILTERED_ITEMS_BY_TAG"

	// KindGetAllTags asks the hub for the full tag list.
	KindGetAllTags Kind = "GET_ALL_TAGS"

	// KindGetTagsForItem asks the hub for the tags attached to one item.
	KindGetTagsForItem Kind = "GET_TAGS_FOR_ITEM"

	// KindAddTagToItem attaches a tag to an item, creating the tag if needed.
	KindAddTagToItem Kind = "ADD_TAG_TO_ITEM"

	// KindRemoveTagFromItem detaches a tag from an item.
	KindRemoveTagFromItem Kind = "REMOVE_TAG_FROM_ITEM"

	// KindGetKeyPointsForTag asks the hub to generate key points for the
	// items carrying a tag and persist them as an analysis item.
	KindGetKeyPointsForTag Kind = "GET_KEY_POINTS_FOR_TAG"

	// KindGeneratePDFReportForTag asks the hub to render a PDF report for a
	// tag and returns a signed download URL.
	KindGeneratePDFReportForTag Kind = "GENERATE_PDF_REPORT_FOR_TAG"

	// KindReportGenerationStatus is a hub-to-panel notification carrying a
	// human-readable progress line for a running report task.
	KindReportGenerationStatus Kind = "REPORT_GENERATION_STATUS"

	// KindDeleteItem removes a saved content item.
	KindDeleteItem Kind = "DELETE_ITEM"

	// KindContentChanged is a hub notification that the saved content set
	// changed; caches rebuild themselves when they see it.
	KindContentChanged Kind = "CONTENT_CHANGED"
)

// knownKinds is the closed set of kinds accepted on the wire.
var knownKinds = map[Kind]struct{}{
	KindGetPageData:             {},
	KindSavePage:                {},
	KindStartAreaSelection:      {},
	KindCaptureAreaFromContent:  {},
	KindGetAllSavedContent:      {},
	KindGetFilteredItemsByTag:   {},
	KindGetAllTags:              {},
	KindGetTagsForItem:          {},
	KindAddTagToItem:            {},
	KindRemoveTagFromItem:       {},
	KindGetKeyPointsForTag:      {},
	KindGeneratePDFReportForTag: {},
	KindReportGenerationStatus:  {},
	KindDeleteItem:              {},
	KindContentChanged:          {},
}

// Known reports whether k is part of the wire vocabulary.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}
