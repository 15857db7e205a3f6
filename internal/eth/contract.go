package eth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// contractABI matches the deployed CredentialNFT contract.
const contractABI = `[
	{"type":"function","name":"mintCredential","stateMutability":"nonpayable","inputs":[{"name":"student","type":"address"},{"name":"studentName","type":"string"},{"name":"course","type":"string"},{"name":"graduationDate","type":"string"},{"name":"degreeHash","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getCredential","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"tuple","components":[{"name":"studentName","type":"string"},{"name":"course","type":"string"},{"name":"graduationDate","type":"string"},{"name":"degreeHash","type":"string"},{"name":"university","type":"address"}]}]},
	{"type":"function","name":"verifyCredential","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"degreeHash","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"authorizedUniversities","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"authorizeUniversity","stateMutability":"nonpayable","inputs":[{"name":"university","type":"address"}],"outputs":[]},
	{"type":"event","name":"CredentialMinted","anonymous":false,"inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"student","type":"address","indexed":true},{"name":"university","type":"address","indexed":true},{"name":"studentName","type":"string","indexed":false},{"name":"course","type":"string","indexed":false}]}
]`

// Credential mirrors the contract's credential tuple. All fields are
// immutable once minted; the current owner is queried separately.
type Credential struct {
	StudentName    string         `json:"studentName"`
	Course         string         `json:"course"`
	GraduationDate string         `json:"graduationDate"`
	DegreeHash     string         `json:"degreeHash"`
	University     common.Address `json:"university"`
}

// MintResult is the outcome of a confirmed mint transaction. When the
// CredentialMinted event could not be decoded from the receipt, Degraded is
// set and TokenID is nil; the transaction hash is still valid.
type MintResult struct {
	TokenID  *big.Int
	TxHash   common.Hash
	Degraded bool
}

// parseMintedTokenID extracts the token id from a CredentialMinted event in
// the receipt logs. tokenId is the first indexed topic after the event
// signature.
func parseMintedTokenID(topic common.Hash, logs []*types.Log) (*big.Int, bool) {
	for _, l := range logs {
		if len(l.Topics) < 2 || l.Topics[0] != topic {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[1].Bytes()), true
	}
	return nil, false
}
