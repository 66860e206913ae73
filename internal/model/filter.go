package model

// CanvasFilter holds criteria for listing canvases. The zero value lists
// everything in the store's default order.
type CanvasFilter struct {
	Search string `json:"search,omitempty"` // case-insensitive match on name
	Sort   string `json:"sort,omitempty"`   // e.g. "-updated_at", "name"; prefix "-" = descending
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
