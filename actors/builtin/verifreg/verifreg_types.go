package verifreg

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
)

// Consumes datacap of a verified client for a newly published verified deal.
type UseBytesParams struct {
	// Address of verified client.
	Address addr.Address
	// Number of bytes to use.
	DealSize abi.StoragePower
}

// Returns datacap to a verified client whose deal failed to activate.
type RestoreBytesParams struct {
	Address  addr.Address
	DealSize abi.StoragePower
}
