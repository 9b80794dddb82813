package artifacts

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownContract = errors.New("artifacts: unknown contract")

type ContractName string

const (
	ContractNameECVerify        ContractName = "ECVerify"
	ContractNameTypes           ContractName = "Types"
	ContractNameParamManager    ContractName = "ParamManager"
	ContractNameRollupUtils     ContractName = "RollupUtils"
	ContractNameNameRegistry    ContractName = "NameRegistry"
	ContractNameGovernance      ContractName = "Governance"
	ContractNameMerkleTreeUtils ContractName = "MerkleTreeUtils"
	ContractNameLogger          ContractName = "Logger"
	ContractNameTokenRegistry   ContractName = "TokenRegistry"
	ContractNamePOB             ContractName = "POB"
	ContractNameIncrementalTree ContractName = "IncrementalTree"
	ContractNameTestToken       ContractName = "TestToken"
	ContractNameDepositManager  ContractName = "DepositManager"
	ContractNameRollup          ContractName = "Rollup"
)

// Contracts is the closed set of units this deployer knows how to provision.
var Contracts = map[ContractName]struct{}{
	ContractNameECVerify:        {},
	ContractNameTypes:           {},
	ContractNameParamManager:    {},
	ContractNameRollupUtils:     {},
	ContractNameNameRegistry:    {},
	ContractNameGovernance:      {},
	ContractNameMerkleTreeUtils: {},
	ContractNameLogger:          {},
	ContractNameTokenRegistry:   {},
	ContractNamePOB:             {},
	ContractNameIncrementalTree: {},
	ContractNameTestToken:       {},
	ContractNameDepositManager:  {},
	ContractNameRollup:          {},
}

func (n ContractName) Validate() error {
	if _, ok := Contracts[n]; !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownContract, string(n))
	}
	return nil
}

// SortedContractNames returns every known contract name in lexical order.
func SortedContractNames() []ContractName {
	names := make([]ContractName, 0, len(Contracts))
	for name := range Contracts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
