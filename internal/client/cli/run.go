package cli

import (
	"context"
	"fmt"

	"github.com/interestIngc/cyphershare/internal/common"
)

func (a *App) RunScript(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: usage: run <cid> [input files...]", common.ErrValidation)
	}

	out, err := a.compute.Run(ctx, args[0], args[1:])
	if err != nil {
		return err
	}

	if out.Result.Stdout != "" {
		printlnFn(out.Result.Stdout)
	}
	if out.Result.Stderr != "" {
		printlnFn(out.Result.Stderr)
	}
	if out.Result.ScriptErr != nil {
		printlnFn("Script failed:", out.Result.ScriptErr.Error())
		return nil
	}
	if out.Result.OutputArtifact != nil {
		printlnFn("Artifact:", string(out.Result.OutputArtifact))
	}
	printlnFn("Commitment:", out.Commitment)
	printlnFn("Type 'prove' for attestation instructions.")
	return nil
}
