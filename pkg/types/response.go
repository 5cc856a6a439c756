package types

// SuccessEnvelope is the standard success payload. The ok discriminant lets
// clients branch without inspecting HTTP status codes.
type SuccessEnvelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	OK    bool     `json:"ok"`
	Error APIError `json:"error"`
}
