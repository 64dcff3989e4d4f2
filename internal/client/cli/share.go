package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/policy"
)

func (a *App) Connect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: connect <address>", common.ErrValidation)
	}
	if err := a.share.ConnectWallet(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Wallet connected:", shortAddress(args[0]))
	return nil
}

// parsePolicy turns the textual policy argument into a condition.
func parsePolicy(arg string) (policy.Condition, error) {
	switch {
	case arg == "balance":
		return policy.PositiveBalance{}, nil

	case strings.HasPrefix(arg, "time:"):
		seconds, err := strconv.ParseInt(strings.TrimPrefix(arg, "time:"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: time policy wants seconds, got %q", common.ErrValidation, arg)
		}
		return policy.TimeWindow{WindowSeconds: seconds, IssuedAt: time.Now()}, nil

	case strings.HasPrefix(arg, "nft:"):
		return policy.NFTOwnership{ContractAddress: strings.TrimPrefix(arg, "nft:")}, nil

	default:
		return nil, fmt.Errorf("%w: unknown policy %q", common.ErrValidation, arg)
	}
}

func (a *App) Share(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: usage: share <path> [policy]", common.ErrValidation)
	}

	var cond policy.Condition
	if len(args) == 2 {
		var err error
		if cond, err = parsePolicy(args[1]); err != nil {
			return err
		}
	}

	rec, err := a.share.Share(ctx, args[0], cond)
	if err != nil {
		return err
	}
	if rec.Encrypted {
		printlnFn(fmt.Sprintf("Shared %s (encrypted, %s) as %s", rec.Name, rec.AccessConditionDescription, rec.ContentID))
	} else {
		printlnFn(fmt.Sprintf("Shared %s as %s", rec.Name, rec.ContentID))
	}
	return nil
}
