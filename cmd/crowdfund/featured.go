package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rpggio/crowdfund/internal/fetch"
	"github.com/rpggio/crowdfund/internal/presenter"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var featuredCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show featured projects with their NFT sales",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		backend, escrow := newClients(logger)

		cache := fetch.New(fetch.Options{Logger: logger, RefetchOnFocus: cfg.Client.RefetchOnFocus})
		defer cache.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Client.Timeout)
		defer cancel()
		ctx = fetch.WithCache(ctx, cache)

		settled := make(chan struct{}, 1)
		q, err := presenter.NewFeatured(backend, escrow, logger).Open(ctx, func(v presenter.FeaturedView) {
			if !v.Loading {
				select {
				case settled <- struct{}{}:
				default:
				}
			}
		})
		if err != nil {
			return err
		}
		defer q.Close()

		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
		if data := q.Data(); data != nil {
			if err := data.Wait(ctx); err != nil {
				return err
			}
		}

		view := q.View()
		if view.Err != nil {
			return view.Err
		}
		renderFeatured(cmd.OutOrStdout(), view)
		return nil
	},
}

func renderFeatured(w io.Writer, view presenter.FeaturedView) {
	if view.Empty {
		fmt.Fprintln(w, mutedStyle.Render("No projects featured yet."))
		return
	}
	for _, p := range view.Projects {
		stats := view.Stats[p.Project.ID]
		var b strings.Builder
		b.WriteString(titleStyle.Render(p.Project.Title))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("by %s · %s", p.Owner.DisplayName(), p.Project.Category)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "goal %.2f · %d of %d NFTs sold", p.Project.Goal, stats.NftsSold, p.Project.NFTVolume)
		fmt.Fprintln(w, cardStyle.Render(b.String()))
	}
}
