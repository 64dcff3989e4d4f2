package cli

import (
	"context"
	"fmt"
)

func (a *App) List(ctx context.Context) error {
	recs, err := a.share.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		printlnFn("No files yet.")
		return nil
	}

	for _, rec := range recs {
		line := fmt.Sprintf("[%s] %s  %.2f MB  %s  cid=%s", rec.Direction, rec.Name, rec.SizeMB(), rec.MimeType, rec.ContentID)
		if rec.Encrypted {
			line += "  (encrypted: " + rec.AccessConditionDescription + ")"
		}
		if rec.ComputationCommitment != "" {
			line += "  commitment=" + rec.ComputationCommitment
		}
		printlnFn(line)
	}

	for _, session := range a.share.Sessions() {
		printlnFn(fmt.Sprintf("[uploading] %s  %d%%", session.Name, session.Progress))
	}
	return nil
}
