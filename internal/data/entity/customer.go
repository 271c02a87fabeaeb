package entity

type CustomerType string

const (
	CustomerTypeNormal CustomerType = "normal"
	CustomerTypeVIP    CustomerType = "vip"
)

type Customer struct {
	Base
	Name  string       `db:"name"`
	Email *string      `db:"email"`
	Phone *string      `db:"phone"`
	Type  CustomerType `db:"customer_type"`
}

func (c *Customer) IsVIP() bool {
	return c.Type == CustomerTypeVIP
}
