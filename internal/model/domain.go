package model

// KnowledgeDomain is a named topic mapped to a backing document and a set of
// responsible users, resolved through the directory collaborator.
type KnowledgeDomain struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	OwnerUserIDs []string `json:"owner_user_ids"`
	LeadUserIDs  []string `json:"lead_user_ids"`
	DocumentRef  string   `json:"document_ref"`
}
