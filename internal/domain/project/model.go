package project

import "github.com/rpggio/crowdfund/internal/domain/profile"

// NewProject holds the fields a creator supplies when launching a project.
type NewProject struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Story          string   `json:"story"`
	Category       string   `json:"category"`
	Goal           float64  `json:"goal"`
	NFTVolume      uint64   `json:"nftVolume"`
	Tags           []string `json:"tags"`
	CoverImg       []byte   `json:"coverImg"`
	WalletID       string   `json:"walletId"`
	TwitterLink    string   `json:"twitterLink"`
	DiscordLink    string   `json:"discordLink"`
	WetransferLink string   `json:"wetransferLink"`
}

// Project is a launched project. ID and Owner never change once assigned.
type Project struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	NewProject
}

// ProjectWithOwner pairs a project with its owner's profile.
type ProjectWithOwner struct {
	Project Project         `json:"project"`
	Owner   profile.Profile `json:"owner"`
}
