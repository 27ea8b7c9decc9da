package types

// ConnectionState is a read-only snapshot of the coordinator.
// EndpointOpen and LinkOpen are independent: the endpoint may be open with
// no link, and a new link may follow a closed one.
type ConnectionState struct {
	EndpointOpen bool        `json:"endpoint_open"`
	LinkOpen     bool        `json:"link_open"`
	Recipient    PublicKey   `json:"recipient,omitempty"`
	Fingerprint  Fingerprint `json:"fingerprint,omitempty"`
	LinkID       LinkID      `json:"link_id,omitempty"`
}
