package minecraft

// LaunchAuthData is an interface defining the data required to launch in
// authenticated mode
type LaunchAuthData interface {
	// GetAccessToken returns the access token (strictly required)
	GetAccessToken() string
	// GetUUID returns the players UUID (strictly required)
	GetUUID() string
	// GetPlayerName returns the players name (the one that also appears in game)
	GetPlayerName() string
	// GetUserType returns the account type ("legacy", "mojang" or "msa")
	GetUserType() string
	// GetXUID returns the players XUID (only for user type "msa")
	GetXUID() string
}
