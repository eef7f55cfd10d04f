package heritage

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event and method names of the plan contract.
const (
	EventConfigurationApplied = "ConfigurationApplied"
	EventBeneficiaryAssigned  = "BeneficiaryAssigned"

	MethodTrigger                  = "trigger"
	MethodIsDistributed            = "isDistributed"
	MethodTotalETHDeposited        = "totalETHDeposited"
	MethodGetBeneficiaryCount      = "getBeneficiaryCount"
	MethodConfigureBeneficiaries   = "configureBeneficiaries"
	MethodSetTimeTrigger           = "setTimeTrigger"
	MethodSetVoluntaryTrigger      = "setVoluntaryTrigger"
	MethodDepositETH               = "depositETH"
	MethodActivateVoluntaryTrigger = "activateVoluntaryTrigger"
	MethodCheckTimeBasedTrigger    = "checkTimeBasedTrigger"
	MethodCancelLegacyPlan         = "cancelLegacyPlan"

	MethodGetUserHeritageChain = "getUserHeritageChain"
	MethodDeployHeritageChain  = "deployHeritageChain"
)

const planABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "beneficiaryCount", "type": "uint256"}
    ],
    "name": "ConfigurationApplied",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "beneficiaryAddress", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "sharePercentage", "type": "uint256"}
    ],
    "name": "BeneficiaryAssigned",
    "type": "event"
  },
  {
    "inputs": [],
    "name": "trigger",
    "outputs": [
      {"internalType": "uint8", "name": "triggerType", "type": "uint8"},
      {"internalType": "uint256", "name": "triggerTimestamp", "type": "uint256"},
      {"internalType": "bool", "name": "isActivated", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "isDistributed",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "totalETHDeposited",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getBeneficiaryCount",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address[]", "name": "beneficiaryAddresses", "type": "address[]"},
      {"internalType": "uint256[]", "name": "sharePercentages", "type": "uint256[]"}
    ],
    "name": "configureBeneficiaries",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "triggerTimestamp", "type": "uint256"}],
    "name": "setTimeTrigger",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "setVoluntaryTrigger",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "depositETH",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "activateVoluntaryTrigger",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "checkTimeBasedTrigger",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "cancelLegacyPlan",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const factoryABIJSON = `[
  {
    "inputs": [{"internalType": "address", "name": "user", "type": "address"}],
    "name": "getUserHeritageChain",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "deployHeritageChain",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	planABI     abi.ABI
	planABIOnce sync.Once
	planABIErr  error

	factoryABI     abi.ABI
	factoryABIOnce sync.Once
	factoryABIErr  error
)

// PlanABI returns the parsed plan contract ABI.
func PlanABI() (abi.ABI, error) {
	planABIOnce.Do(func() {
		planABI, planABIErr = abi.JSON(strings.NewReader(planABIJSON))
	})
	return planABI, planABIErr
}

// FactoryABI returns the parsed factory ABI.
func FactoryABI() (abi.ABI, error) {
	factoryABIOnce.Do(func() {
		factoryABI, factoryABIErr = abi.JSON(strings.NewReader(factoryABIJSON))
	})
	return factoryABI, factoryABIErr
}
