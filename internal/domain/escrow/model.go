package escrow

// Stats summarises NFT sales for a project.
type Stats struct {
	NftsSold    uint64 `json:"nftsSold"`
	NftPriceE8S uint64 `json:"nftPriceE8S"`
}
