// Package reveal implements the batch reveal flow of deferred-reveal drops.
//
// Modal holds the state of the reveal dialog for one batch: open or closed,
// loading, and the password field error. DropRevealer sends the reveal
// transaction to a drop contract, deriving the reveal key from the password.
//
// Example:
//
//	client, _ := ethclient.Dial(rpcURL)
//	revealer, _ := reveal.NewKeyedDropRevealer(client, client, contractAddr, chainID, privateKey)
//
//	modal := reveal.NewModal("alice", batch, revealer, notifier, logger)
//	modal.Open()
//	err := modal.Submit(ctx, password)
package reveal
