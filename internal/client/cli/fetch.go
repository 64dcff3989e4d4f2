package cli

import (
	"context"
	"fmt"

	"github.com/interestIngc/cyphershare/internal/common"
)

func (a *App) Fetch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: fetch <cid>", common.ErrValidation)
	}
	dest, err := a.share.Fetch(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn("Saved to", dest)
	return nil
}
