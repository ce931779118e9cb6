package model

// Client is a customer record. CIF is the tax/registration identifier used as
// the business key by CSV import.
type Client struct {
	ID    int64  `json:"id"    db:"id"`
	Name  string `json:"name"  db:"name"`
	CIF   string `json:"cif"   db:"cif"`
	Email string `json:"email" db:"email"`
	Phone string `json:"phone" db:"phone"`
	Web   string `json:"web"   db:"web"`
}
