// Package contract is the typed gateway to the real-estate smart contract.
//
// A [Gateway] binds one contract address to its ABI and turns every contract function
// into a Go method. Writes are submitted with eth_sendTransaction and signed by the node
// with the caller's unlocked account; reads go through eth_call and are decoded into
// [Estate], [Advert] or *big.Int values.
//
// # Errors
//
//   - [*ContractRejectedError] carries the contract's revert reason verbatim.
//   - [*ArgumentInvalidError] is returned for malformed integer input, always before the
//     node is contacted. [ParseInteger] produces it for form values.
//   - Anything else the node returns is wrapped in [ErrNodeFailure].
//
// The gateway never retries. A failed write may still have reached the mempool, so the
// decision to resubmit belongs to the user.
//
// # ABI
//
// The default ABI is embedded from abi.json. Deployments with a different build of the
// contract pass their own JSON to [New]; it must declare every function listed in
// [RequiredMethods].
package contract
