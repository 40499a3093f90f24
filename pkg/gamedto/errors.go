package gamedto

// Error is the JSON error body. Code is a move error kind or one of the
// transport codes below.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "arbiter error"
}

const (
	CodeNotFound         = "not_found"
	CodeBadRequest       = "bad_request"
	CodeConcurrentUpdate = "concurrent_update"
	CodeInternal         = "internal"
	CodeMethodNotAllowed = "method_not_allowed"
)
