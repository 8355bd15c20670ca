package wire

import "strings"

// Machine-readable error strings carried by failure responses. Peers branch
// on these, so they stay short and stable.
const (
	// ErrBusy means a report task for the same tag is already running.
	ErrBusy = "busy"

	// ErrUnknownKind means the receiver does not handle the request kind.
	ErrUnknownKind = "unknown_kind"

	// ErrNoAgent means no agent is connected for the addressed tab.
	ErrNoAgent = "no_agent"

	// ErrPeerGone means the peer disconnected before answering.
	ErrPeerGone = "peer_disconnected"

	// ErrTimeout means the request deadline elapsed without a response.
	ErrTimeout = "timeout"

	// ErrCanceled means the caller abandoned the request before it resolved.
	ErrCanceled = "canceled"

	// ErrNotFound means the addressed item or tag does not exist.
	ErrNotFound = "not_found"

	// ErrInvalidPayload means the request body failed to decode.
	ErrInvalidPayload = "invalid_payload"

	// ErrSelectionActive means an area selection is already in progress.
	ErrSelectionActive = "selection_active"

	// ErrNoContent means a tag has no items to generate from.
	ErrNoContent = "no_content"

	// ErrInternal is the catch-all for persistence and rendering failures.
	ErrInternal = "internal_error"
)

// Content item types.
const (
	// ItemTypePage is a full-page capture.
	ItemTypePage = "page"

	// ItemTypeArea is a cropped region capture.
	ItemTypeArea = "area"

	// ItemTypeNote is user-entered text.
	ItemTypeNote = "note"

	// ItemTypeAnalysis is generated content derived from other items.
	ItemTypeAnalysis = "analysis"
)

// Analysis subtypes.
const (
	// SubtypeKeyPoints marks an analysis item holding generated key points.
	SubtypeKeyPoints = "key_points"
)

// KeyPointsTitlePrefix heads generated key-points analyses. Items saved
// before the subtype column existed carry no subtype and are recognized by
// this prefix instead.
const KeyPointsTitlePrefix = "Key Points: "

// ContentItem is a saved piece of captured or generated content.
type ContentItem struct {
	// ID uniquely identifies the item.
	ID string `json:"id"`

	// Type is one of the ItemType constants.
	Type string `json:"type"`

	// Subtype refines Type for analysis items; empty otherwise.
	Subtype string `json:"subtype,omitempty"`

	// Title is the page title or a generated caption.
	Title string `json:"title"`

	// URL is the source page address, when the item came from a page.
	URL string `json:"url,omitempty"`

	// Content is the extracted or generated text body.
	Content string `json:"content,omitempty"`

	// ImageData holds a PNG data URL for area captures; empty otherwise.
	ImageData string `json:"imageData,omitempty"`

	// SourceTagID names the tag an analysis item was generated from.
	SourceTagID string `json:"sourceTagId,omitempty"`

	// CreatedAt is the creation time in Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the last modification time in Unix milliseconds.
	UpdatedAt int64 `json:"updatedAt"`
}

// IsKeyPointsAnalysis reports whether the item is a stored key-points
// analysis. The subtype decides when set; the title prefix is consulted
// only for legacy items without one.
func (i ContentItem) IsKeyPointsAnalysis() bool {
	if i.Type != ItemTypeAnalysis {
		return false
	}
	if i.Subtype != "" {
		return i.Subtype == SubtypeKeyPoints
	}
	return strings.HasPrefix(i.Title, KeyPointsTitlePrefix)
}

// Tag is a user-defined label attached to content items.
type Tag struct {
	// ID uniquely identifies the tag.
	ID string `json:"id"`

	// Name is the display name. Names are unique case-insensitively.
	Name string `json:"name"`

	// CreatedAt is the creation time in Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// PageData is the content an agent extracts from its page.
type PageData struct {
	// URL is the page address.
	URL string `json:"url"`

	// Title is the document title.
	Title string `json:"title"`

	// Lang is the document language code, when declared.
	Lang string `json:"lang,omitempty"`

	// Description is the meta description, when present.
	Description string `json:"description,omitempty"`

	// Keywords are the meta keywords, when present.
	Keywords []string `json:"keywords,omitempty"`

	// Links are the absolute outbound link targets found in the document.
	Links []string `json:"links,omitempty"`

	// Text is the readable text extracted from the document.
	Text string `json:"text"`

	// HTML is the raw document markup. May be empty for large pages.
	HTML string `json:"html,omitempty"`
}

// SavePageRequest persists a full-page capture the panel already extracted.
type SavePageRequest struct {
	// PageData is the extracted page content.
	PageData PageData `json:"pageData"`

	// TabID records which tab the capture came from, when known.
	TabID string `json:"tabId,omitempty"`
}

// SavedRef acknowledges a persisted item.
type SavedRef struct {
	// ID is the new item's ID.
	ID string `json:"id"`
}

// CaptureAreaPayload is emitted by an agent when an area selection commits.
type CaptureAreaPayload struct {
	// Rect is the committed selection in CSS pixels, already normalized.
	Rect Rect `json:"rect"`

	// DevicePixelRatio converts Rect into screenshot pixels.
	DevicePixelRatio float64 `json:"devicePixelRatio"`

	// URL is the page the capture came from.
	URL string `json:"url"`

	// Title is the page title at capture time.
	Title string `json:"title"`

	// Lang is the document language code, when declared.
	Lang string `json:"lang,omitempty"`

	// Links are the outbound link targets of the page.
	Links []string `json:"links,omitempty"`

	// Image is a PNG data URL of the visible page, uncropped. The hub
	// clips it to Rect. Empty when the page adapter cannot screenshot.
	Image string `json:"image,omitempty"`
}

// ItemList is the payload of content listing responses.
type ItemList struct {
	// Items are the matching content items, newest first.
	Items []ContentItem `json:"items"`
}

// TagList is the payload of tag listing responses.
type TagList struct {
	// Tags are the matching tags, sorted by name.
	Tags []Tag `json:"tags"`
}

// TagFilterRequest selects items by tag.
type TagFilterRequest struct {
	// TagID is the tag to filter by.
	TagID string `json:"tagId"`
}

// ItemRef addresses a single content item.
type ItemRef struct {
	// ContentID is the addressed item.
	ContentID string `json:"contentId"`
}

// AddTagRequest attaches a tag to an item by name.
type AddTagRequest struct {
	// ContentID is the item to tag.
	ContentID string `json:"contentId"`

	// TagName is the tag's display name; the tag is created when missing.
	TagName string `json:"tagName"`
}

// AddTagResult reports the tag that was attached.
type AddTagResult struct {
	// Tag is the attached tag, including its ID.
	Tag Tag `json:"tag"`
}

// RemoveTagRequest detaches a tag from an item.
type RemoveTagRequest struct {
	// ContentID is the item to untag.
	ContentID string `json:"contentId"`

	// TagID is the tag to detach.
	TagID string `json:"tagId"`
}

// TagRef addresses a single tag.
type TagRef struct {
	// TagID is the addressed tag.
	TagID string `json:"tagId"`
}

// DeleteItemRequest removes a saved item.
type DeleteItemRequest struct {
	// ID is the item to delete.
	ID string `json:"id"`
}

// KeyPointsResult reports a generated key-points analysis.
type KeyPointsResult struct {
	// NewID is the persisted analysis item's ID.
	NewID string `json:"newId"`

	// KeyPoints are the generated bullet points.
	KeyPoints []string `json:"keyPoints"`

	// SourceInfo summarizes what the points were generated from.
	SourceInfo string `json:"sourceInfo"`
}

// ReportOptions tunes report generation.
type ReportOptions struct {
	// SkipKeyPoints omits the key-points step entirely.
	SkipKeyPoints bool `json:"skipKeyPoints,omitempty"`
}

// ReportRequest asks for a PDF report for a tag.
type ReportRequest struct {
	// TagID is the tag to report on.
	TagID string `json:"tagId"`

	// Options tunes the generation steps.
	Options ReportOptions `json:"options"`
}

// ReportResult reports a rendered PDF report.
type ReportResult struct {
	// Filename is the generated file name.
	Filename string `json:"filename"`

	// URL is a signed, time-limited download address for the PDF.
	URL string `json:"url"`
}

// Status severities for progress notifications.
const (
	// SeverityInfo is ordinary progress.
	SeverityInfo = "info"

	// SeverityWarn marks a non-fatal step failure the task survived.
	SeverityWarn = "warn"

	// SeverityError marks a fatal failure; the task is over.
	SeverityError = "error"
)

// ReportStatus is the payload of a REPORT_GENERATION_STATUS notification.
type ReportStatus struct {
	// Message is the human-readable progress line.
	Message string `json:"message"`

	// Severity is one of the Severity constants.
	Severity string `json:"severity"`

	// TagID names the tag the running task belongs to, when known.
	TagID string `json:"tagId,omitempty"`
}

// Change reasons carried by ContentChanged.
const (
	ChangeSaved    = "saved"
	ChangeDeleted  = "deleted"
	ChangeTagged   = "tagged"
	ChangeUntagged = "untagged"
	ChangeAnalyzed = "analyzed"
)

// ContentChanged is the payload of a CONTENT_CHANGED notification.
type ContentChanged struct {
	// Reason says what happened: one of the Change constants.
	Reason string `json:"reason"`

	// TagID names the affected tag, when a single tag was affected.
	TagID string `json:"tagId,omitempty"`
}
