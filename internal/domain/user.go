package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleCompany  Role = "company"
)
