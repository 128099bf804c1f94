package domain

// LiverTalent identifies a performer. Two talents are the same talent iff
// their names are equal (case-sensitive).
type LiverTalent struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// LiverInfo is a directory entry resolved from an agency's talent id.
type LiverInfo struct {
	TalentID string `json:"talentId"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
}
