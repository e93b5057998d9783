package domain

// SubjectType differentiates the three principal kinds carried in tokens.
type SubjectType string

const (
	SubjectTypeAdmin    SubjectType = "ADMIN"
	SubjectTypeAgent    SubjectType = "AGENT"
	SubjectTypeCustomer SubjectType = "CUSTOMER"
)
