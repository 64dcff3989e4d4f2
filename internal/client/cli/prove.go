package cli

import (
	"context"
	"fmt"

	"github.com/interestIngc/cyphershare/internal/common"
)

// Prove without arguments shows the attestation email to send; with a path
// it submits the saved .eml file to the verifier.
func (a *App) Prove(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		subject, body, err := a.compute.Instructions()
		if err != nil {
			return err
		}
		printlnFn("Send an email with this exact subject:")
		printlnFn("  " + subject)
		printlnFn(body)
		printlnFn("Then export the sent message as .eml and submit it with: prove <file>")
		return nil

	case 1:
		txHash, err := a.compute.Prove(ctx, args[0])
		if err != nil {
			return err
		}
		printlnFn("Proof accepted, transaction:", txHash)
		return nil

	default:
		return fmt.Errorf("%w: usage: prove [eml file]", common.ErrValidation)
	}
}
