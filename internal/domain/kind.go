package domain

// Kind is the registrant category. Users and companies register through the
// same OTP flow but have independent pending stores, duplicate checks and
// account tables.
type Kind string

const (
	KindUser    Kind = "user"
	KindCompany Kind = "company"
)
