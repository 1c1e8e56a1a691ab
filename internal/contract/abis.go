// Package contract wraps the on-chain Cartesi rollups contracts: the
// InputBox that receives inputs and the Application that validates and
// executes outputs.
package contract

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const inputBoxJSON = `[
  {"type":"function","name":"addInput","stateMutability":"nonpayable",
   "inputs":[{"name":"appContract","type":"address"},{"name":"payload","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"getNumberOfInputs","stateMutability":"view",
   "inputs":[{"name":"appContract","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"InputAdded","anonymous":false,
   "inputs":[{"name":"appContract","type":"address","indexed":true},
             {"name":"index","type":"uint256","indexed":true},
             {"name":"input","type":"bytes","indexed":false}]},
  {"type":"error","name":"InputTooLarge",
   "inputs":[{"name":"appContract","type":"address"},{"name":"inputLength","type":"uint256"},{"name":"maxInputLength","type":"uint256"}]}
]`

const proofTuple = `{"name":"proof","type":"tuple","components":[
     {"name":"outputIndex","type":"uint64"},
     {"name":"outputHashesSiblings","type":"bytes32[]"}]}`

var applicationJSON = `[
  {"type":"function","name":"executeOutput","stateMutability":"nonpayable",
   "inputs":[{"name":"output","type":"bytes"},` + proofTuple + `],"outputs":[]},
  {"type":"function","name":"validateOutput","stateMutability":"view",
   "inputs":[{"name":"output","type":"bytes"},` + proofTuple + `],"outputs":[]},
  {"type":"function","name":"wasOutputExecuted","stateMutability":"view",
   "inputs":[{"name":"outputIndex","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"OutputExecuted","anonymous":false,
   "inputs":[{"name":"outputIndex","type":"uint64","indexed":false},
             {"name":"output","type":"bytes","indexed":false}]},
  {"type":"error","name":"ClaimNotAccepted","inputs":[{"name":"claim","type":"bytes32"}]},
  {"type":"error","name":"InvalidOutputHashesSiblingsArrayLength","inputs":[]},
  {"type":"error","name":"InvalidOutputsMerkleRoot","inputs":[{"name":"outputsMerkleRoot","type":"bytes32"}]},
  {"type":"error","name":"OutputNotExecutable","inputs":[{"name":"output","type":"bytes"}]},
  {"type":"error","name":"OutputNotReexecutable","inputs":[{"name":"output","type":"bytes"}]},
  {"type":"error","name":"InsufficientFunds","inputs":[{"name":"value","type":"uint256"},{"name":"balance","type":"uint256"}]}
]`

var (
	inputBoxABI    = mustParseABI("InputBox", inputBoxJSON)
	applicationABI = mustParseABI("Application", applicationJSON)
)

func mustParseABI(name, s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("contract: bad %s ABI: %v", name, err))
	}
	return parsed
}
