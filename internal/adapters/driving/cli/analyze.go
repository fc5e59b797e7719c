package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

var (
	analyzeDocument string
	analyzeStream   bool
	analyzeApply    string
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Ask which documentation should change",
	Long: `Describe a product change and get proposed documentation edits,
new documents and deletions.

With --stream the analysis runs over the progress stream and prints each
step as it happens. With --apply the proposals of the given kind
(all, edit, create or delete) are applied straight away.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeDocument, "document", "d", "", "limit the analysis to one document id")
	analyzeCmd.Flags().BoolVarP(&analyzeStream, "stream", "s", false, "stream progress events (default from stream.enabled)")
	analyzeCmd.Flags().StringVar(&analyzeApply, "apply", "", "apply proposals of this kind: all, edit, create, delete")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output proposals as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if changeService == nil {
		return errors.New("change service not configured")
	}

	var applyFilter domain.ChangeFilter
	if analyzeApply != "" {
		f, err := domain.ParseChangeFilter(analyzeApply)
		if err != nil {
			return err
		}
		applyFilter = f
	}

	req := domain.AnalysisRequest{Query: args[0], DocumentID: analyzeDocument}
	ctx := cmd.Context()

	var (
		snap *driving.ChangeSnapshot
		err  error
	)
	if useStream(cmd) {
		snap, err = analyzeStreamed(ctx, cmd, req)
	} else {
		snap, err = changeService.Analyze(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	var outcome *driving.ApplyOutcome
	if applyFilter != "" {
		changeService.SetFilter(applyFilter)
		changeService.SelectAll()
		outcome, err = changeService.ApplySelected(ctx)
		if err != nil && !errors.Is(err, domain.ErrNothingSelected) {
			return fmt.Errorf("apply failed: %w", err)
		}
		changeService.SetFilter(domain.FilterAll)
		snap = changeService.Snapshot()
	}

	if analyzeJSON {
		return outputChangesJSON(cmd, snap, outcome)
	}

	if outcome != nil {
		cmd.Println(outcome.Notice())
		for _, id := range outcome.Failed {
			cmd.Printf("  failed: %s\n", id)
		}
		cmd.Println()
	} else if applyFilter != "" {
		cmd.Printf("Nothing to apply (%s).\n\n", applyFilter.Label())
	}
	printChanges(cmd, snap)
	return nil
}

// useStream reports whether to stream, falling back to stream.enabled.
func useStream(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("stream") || settingsService == nil {
		return analyzeStream
	}
	settings, err := settingsService.Get()
	if err != nil {
		return analyzeStream
	}
	return settings.Stream.Enabled
}

// analyzeStreamed runs the analysis over the progress stream and loads the
// collected proposals once it finishes.
func analyzeStreamed(ctx context.Context, cmd *cobra.Command, req domain.AnalysisRequest) (*driving.ChangeSnapshot, error) {
	if progressService == nil {
		return nil, errors.New("progress service not configured")
	}

	done := make(chan struct{}, 1)
	signal := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}

	var (
		mu      sync.Mutex
		failure string
	)
	fail := func(msg string) {
		mu.Lock()
		if failure == "" {
			failure = msg
		}
		mu.Unlock()
		signal()
	}

	progressService.SetCallbacks(driving.ProgressCallbacks{
		OnEvent: func(e domain.ProgressEvent) {
			printEvent(cmd, e)
			if e.Type == domain.EventFinished || e.Type == domain.EventError {
				signal()
			}
		},
		OnError: fail,
		OnConnectionChange: func(s domain.ConnectionState) {
			if s == domain.ConnectionClosed {
				signal()
			}
		},
	})
	defer progressService.SetCallbacks(driving.ProgressCallbacks{})

	if err := progressService.Connect(ctx); err != nil {
		return nil, err
	}
	defer progressService.Disconnect()

	if err := progressService.StartEdit(req); err != nil {
		return nil, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mu.Lock()
	msg := failure
	mu.Unlock()
	if msg == "" {
		msg = progressService.State().Error
	}
	if msg != "" {
		return nil, errors.New(msg)
	}
	return changeService.Load(ctx, progressService.Collected()), nil
}

func printEvent(cmd *cobra.Command, e domain.ProgressEvent) {
	switch e.Type {
	case domain.EventProgress:
		step, total := e.Steps()
		cmd.Printf("[%d/%d] %s\n", step, total, e.Message())
	case domain.EventError:
		cmd.Printf("error: %s\n", e.Message())
	default:
		if msg := e.Message(); msg != "" {
			cmd.Printf("%s: %s\n", e.Type, msg)
		} else {
			cmd.Printf("%s\n", e.Type)
		}
	}
}

func printChanges(cmd *cobra.Command, snap *driving.ChangeSnapshot) {
	if len(snap.Visible) == 0 {
		cmd.Println("No changes proposed.")
		return
	}

	c := snap.Counts
	cmd.Printf("Proposed changes: %d edits, %d creates, %d deletes\n\n", c.Edit, c.Create, c.Delete)
	for _, p := range snap.Visible {
		cmd.Printf("  [%s] %s  %s\n", p.Kind, p.ID, p.Title())
		switch p.Kind {
		case domain.ChangeKindEdit:
			cmd.Printf("      %d replacements\n", len(p.Edit.Changes))
		case domain.ChangeKindCreate, domain.ChangeKindDelete:
			if path := p.Path(); path != "" {
				cmd.Printf("      %s\n", path)
			}
		}
	}
}

// changeJSON is the JSON shape of one proposal.
type changeJSON struct {
	ID     domain.Identity        `json:"id"`
	Kind   domain.ChangeKind      `json:"kind"`
	Title  string                 `json:"title"`
	Edit   *domain.EditProposal   `json:"edit,omitempty"`
	Create *domain.CreateProposal `json:"create,omitempty"`
	Delete *domain.DeleteProposal `json:"delete,omitempty"`
}

func toChangeJSON(visible []domain.Proposal) []changeJSON {
	out := make([]changeJSON, 0, len(visible))
	for _, p := range visible {
		out = append(out, changeJSON{
			ID:     p.ID,
			Kind:   p.Kind,
			Title:  p.Title(),
			Edit:   p.Edit,
			Create: p.Create,
			Delete: p.Delete,
		})
	}
	return out
}

func outputChangesJSON(cmd *cobra.Command, snap *driving.ChangeSnapshot, outcome *driving.ApplyOutcome) error {
	payload := struct {
		Counts  domain.ChangeCounts  `json:"counts"`
		Changes []changeJSON         `json:"changes"`
		Applied *domain.UpdateResult `json:"applied,omitempty"`
		Failed  []domain.Identity    `json:"failed,omitempty"`
	}{
		Counts:  snap.Counts,
		Changes: toChangeJSON(snap.Visible),
	}
	if outcome != nil {
		payload.Applied = &outcome.Result
		payload.Failed = outcome.Failed
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
