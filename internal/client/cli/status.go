package cli

import (
	"context"
	"fmt"
)

func (a *App) Status(ctx context.Context) error {
	info, err := a.share.NodeInfo(ctx)
	if err != nil {
		printlnFn("Store node: unreachable (" + err.Error() + ")")
	} else {
		printlnFn(fmt.Sprintf("Store node: %s %s status=%s uptime=%s peers=%d",
			info.ID, info.Version, info.Status, info.Uptime, info.Peers))
	}

	w := a.share.Wallet()
	if w.Connected() {
		printlnFn("Wallet:", w.Address)
	} else {
		printlnFn("Wallet: not connected")
	}

	printlnFn("Room:", a.config.RoomID, "via", a.config.RelayKind)
	printlnFn("Proof:", a.compute.ProofState().String())
	return nil
}
