package ledger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chaintrack/backend/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAddresses(t *testing.T) {
	t.Run("valid mapping", func(t *testing.T) {
		addrs, err := ledger.LoadAddresses("testdata/addresses.json")
		require.NoError(t, err)
		assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", addrs.ProductRegistry)
		assert.Equal(t, "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512", addrs.AccessControl)
		assert.Equal(t, "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0", addrs.SupplyAgreement)
	})

	t.Run("missing file", func(t *testing.T) {
		addrs, err := ledger.LoadAddresses("testdata/nope.json")
		require.Error(t, err)
		assert.Nil(t, addrs)
	})

	t.Run("invalid contract address", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "addresses.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ProductRegistry":"not-an-address","AccessControl":"0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512","SupplyAgreement":"0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"}`), 0o600))

		addrs, err := ledger.LoadAddresses(path)
		require.Error(t, err)
		assert.Nil(t, addrs)
		assert.Contains(t, err.Error(), "ProductRegistry")
	})
}

func TestLoadABI(t *testing.T) {
	t.Run("hardhat-style artifact", func(t *testing.T) {
		parsed, err := ledger.LoadABI("testdata", ledger.ProductRegistryContract)
		require.NoError(t, err)

		_, ok := parsed.Methods["createProduct"]
		assert.True(t, ok, "createProduct should be present")
		_, ok = parsed.Methods["getProduct"]
		assert.True(t, ok, "getProduct should be present")
		_, ok = parsed.Events["ProductCreated"]
		assert.True(t, ok, "ProductCreated event should be present")
	})

	t.Run("bare ABI array", func(t *testing.T) {
		dir := t.TempDir()
		bare := `[{"type":"function","name":"ping","stateMutability":"view","inputs":[],"outputs":[]}]`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Bare.json"), []byte(bare), 0o600))

		parsed, err := ledger.LoadABI(dir, "Bare")
		require.NoError(t, err)
		_, ok := parsed.Methods["ping"]
		assert.True(t, ok)
	})

	t.Run("malformed ABI", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.json"), []byte(`{"abi":[{"type":`), 0o600))

		_, err := ledger.LoadABI(dir, "Broken")
		require.Error(t, err)
	})

	t.Run("missing artifact", func(t *testing.T) {
		_, err := ledger.LoadABI("testdata", "Missing")
		require.Error(t, err)
	})
}
