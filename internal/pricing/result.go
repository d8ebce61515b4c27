package pricing

// ItemResult is the outcome of one item of a bulk operation.
type ItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BulkResult reports every item of a bulk operation. It is only a success
// when no item failed.
type BulkResult struct {
	Total          int          `json:"total"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	Skipped        int          `json:"skipped"`
	ReloadRequired bool         `json:"reloadRequired"`
	Items          []ItemResult `json:"items"`
}

// OK records a successful item.
func (r *BulkResult) OK(id string) {
	r.Total++
	r.Succeeded++
	r.Items = append(r.Items, ItemResult{ID: id, OK: true})
}

// Fail records a failed item. Any failure requires the caller to reload.
func (r *BulkResult) Fail(id string, err error) {
	r.Total++
	r.Failed++
	r.ReloadRequired = true
	r.Items = append(r.Items, ItemResult{ID: id, Error: err.Error()})
}

// Success reports whether every item succeeded.
func (r *BulkResult) Success() bool {
	return r.Failed == 0
}
