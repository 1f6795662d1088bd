package domain

// RequestContext carries the per-request choices the presenter collected:
// provider, model and credentials. It is built for one request and dropped afterwards;
// nothing in it is stored globally.
type RequestContext struct {
	RequestID string `json:"request_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`

	// Credentials maps a credential name (e.g. "GROQ_API_KEY") to its value.
	Credentials map[string]string `json:"-"`
}

// Credential returns the named credential or "".
func (r RequestContext) Credential(name string) string {
	if r.Credentials == nil {
		return ""
	}
	return r.Credentials[name]
}
