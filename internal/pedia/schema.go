package pedia

// Pass1Request is the body of POST /ttpapi1/nexus/pass1.
type Pass1Request struct {
	DocID      string `json:"doc_id"`
	JobID      string `json:"job_id"`
	AssetsJSON string `json:"assets_json"`
	PediaTxt   string `json:"pedia_txt"`
}

// Pass1Response is the response of POST /ttpapi1/nexus/pass1.
type Pass1Response struct {
	Status               string `json:"status"`
	AssetsJSON           string `json:"assets_json"`
	ResolvedReferenceTeX string `json:"resolved_reference_tex"`
	PreserveAssets       *int   `json:"preserve_assets,omitempty"`
}

// AssetsUploadedRequest is the body of POST /ttpapi1/nexus/assets_uploaded.
type AssetsUploadedRequest struct {
	SeqNum    int    `json:"seq_num"`
	BucketKey string `json:"bucket_key"`
}

// AssetsUploadedResponse is always empty; the worker tells success from
// failure by the HTTP status code alone.
type AssetsUploadedResponse struct{}

// EntryResponse is the response of GET /ttpapi1/nexus/entry/{name}.
type EntryResponse struct {
	DocID      string `json:"doc_id"`
	OutputName string `json:"output_name"`
	Title      string `json:"title"`
}

// SubmitRequest is the body of POST /ttpapi1/repo/submit.
type SubmitRequest struct {
	DocID string `json:"doc_id"`
}

// SubmitResponse is always a 200 with a status string per §4.3 and §7;
// callers distinguish success from failure by comparing Status to "ok".
type SubmitResponse struct {
	Status string `json:"status"`
}
