package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract artifact names as produced by the deploy step.
const (
	ProductRegistryContract = "ProductRegistry"
	AccessControlContract   = "AccessControl"
	SupplyAgreementContract = "SupplyAgreement"
)

// Addresses is the deployed-address mapping produced by the deploy step.
type Addresses struct {
	ProductRegistry string `json:"ProductRegistry"`
	AccessControl   string `json:"AccessControl"`
	SupplyAgreement string `json:"SupplyAgreement"`
}

// LoadAddresses reads and validates the deployed-address mapping file.
func LoadAddresses(path string) (*Addresses, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read addresses file: %w", err)
	}

	var addrs Addresses
	if err := json.Unmarshal(data, &addrs); err != nil {
		return nil, fmt.Errorf("failed to parse addresses file: %w", err)
	}

	for name, addr := range map[string]string{
		ProductRegistryContract: addrs.ProductRegistry,
		AccessControlContract:   addrs.AccessControl,
		SupplyAgreementContract: addrs.SupplyAgreement,
	} {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid address for contract %s: %q", name, addr)
		}
	}

	return &addrs, nil
}

// hardhat-style artifacts wrap the ABI in an object; bare ABI arrays are also accepted
type artifactFile struct {
	ABI json.RawMessage `json:"abi"`
}

// LoadABI reads <dir>/<name>.json and parses the contract interface description.
func LoadABI(dir, name string) (abi.ABI, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read ABI artifact %s: %w", path, err)
	}

	raw := data
	var wrapped artifactFile
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.ABI) > 0 {
		raw = wrapped.ABI
	}

	parsed, err := abi.JSON(strings.NewReader(string(raw)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("malformed ABI for contract %s: %w", name, err)
	}
	return parsed, nil
}
