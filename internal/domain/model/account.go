package model

// Account holds the personal details attached to a fare account.
// The core treats these as opaque presentation data.
type Account struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Card describes the fare card bound to the account. BalanceCents is the
// stored value in cents; it is read-write server state and must always
// reflect the server's latest value.
type Card struct {
	Number       string `json:"number"`
	BalanceCents int64  `json:"balance"`
	Status       string `json:"status"`
}

// AccountSnapshot is the decoded payload of the account resource: the
// account and its card, always fetched together.
type AccountSnapshot struct {
	Account Account `json:"account"`
	Card    Card    `json:"card"`
}

// AccountUpdate is the mutable subset of account details accepted by the
// update endpoint.
type AccountUpdate struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}
