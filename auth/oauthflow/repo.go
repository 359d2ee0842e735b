package oauthflow

import "time"

// FlowState is what the server remembers between redirecting a browser to the identity
// provider and receiving the callback, keyed by the state parameter.
type FlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, flow *FlowState) error
	// Take returns the flow and removes it so a state value can only be redeemed once.
	Take(state string) (*FlowState, error)
}
