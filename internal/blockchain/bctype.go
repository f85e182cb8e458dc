package blockchain

// BCType identifies the kind of chain a contract context talks to.
type BCType string

const (
	Ethereum BCType = "ethereum"
)
