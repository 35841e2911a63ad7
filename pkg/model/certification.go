package model

// CertificationSimple is the summary form used in prerequisite lists.
type CertificationSimple struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code,omitempty"`
	CategoryMain string `json:"category_main,omitempty"`
	CategorySub  string `json:"category_sub,omitempty"`
	Level        Level  `json:"level,omitempty"`
	LevelOrder   int    `json:"level_order"`
}

// CertificationDetail is the expanded record shown in the detail panel.
type CertificationDetail struct {
	CertificationSimple
	Issuer        string                `json:"issuer,omitempty"`
	FeeWritten    *int                  `json:"fee_written,omitempty"`
	FeePractical  *int                  `json:"fee_practical,omitempty"`
	PassRate      string                `json:"pass_rate,omitempty"`
	Description   string                `json:"description,omitempty"`
	Eligibility   string                `json:"eligibility,omitempty"`
	Subjects      string                `json:"subjects,omitempty"`
	IsActive      bool                  `json:"is_active"`
	Prerequisites []CertificationSimple `json:"prerequisites"`
	RequiredFor   []CertificationSimple `json:"required_for"`
}

// CategoryCount is a sub-category with its certification count.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryTree groups sub-categories under a main category.
type CategoryTree struct {
	Main  string          `json:"main"`
	Subs  []CategoryCount `json:"subs"`
	Total int             `json:"total"`
}

// IntPtr is a small helper for optional fee fields.
func IntPtr(v int) *int {
	return &v
}
