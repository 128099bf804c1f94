package domain

type Affiliation string

const (
	AffiliationHololive  Affiliation = "hololive"
	AffiliationNijisanji Affiliation = "nijisanji"
)

func (a Affiliation) String() string {
	return string(a)
}

func (a Affiliation) IsValid() bool {
	switch a {
	case AffiliationHololive, AffiliationNijisanji:
		return true
	default:
		return false
	}
}

// Affiliations lists every known agency in comparison order.
func Affiliations() []Affiliation {
	return []Affiliation{AffiliationHololive, AffiliationNijisanji}
}
