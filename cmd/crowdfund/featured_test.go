package main

import (
	"bytes"
	"testing"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/presenter"
	"github.com/stretchr/testify/require"
)

func TestRenderFeatured(t *testing.T) {
	var buf bytes.Buffer
	renderFeatured(&buf, presenter.FeaturedView{
		Projects: []project.ProjectWithOwner{{
			Project: project.Project{ID: "1", NewProject: project.NewProject{
				Title: "Moon Garden", Category: "art", Goal: 12.5, NFTVolume: 100,
			}},
			Owner: profile.Profile{FirstName: "Alice", LastName: "Moon"},
		}},
		Stats: map[string]escrow.Stats{"1": {NftsSold: 3}},
	})

	out := buf.String()
	require.Contains(t, out, "Moon Garden")
	require.Contains(t, out, "Alice Moon")
	require.Contains(t, out, "3 of 100 NFTs sold")
}

func TestRenderFeatured_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderFeatured(&buf, presenter.FeaturedView{Empty: true})
	require.Contains(t, buf.String(), "No projects featured yet.")
}
