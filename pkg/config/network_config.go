package config

// NetworkConfig describes the chain the contract lives on. The same values
// are handed to the wallet when it has to add the network.
type NetworkConfig struct {
	ChainID          uint64         `yaml:"chain_id"`
	ChainName        string         `yaml:"chain_name"`
	RPCURLs          []string       `yaml:"rpc_urls"`           // First entry is dialled
	BlockExplorerURL string         `yaml:"block_explorer_url"` // Base URL, e.g. https://sepolia.etherscan.io/
	NativeCurrency   NativeCurrency `yaml:"native_currency"`
	SOCKS5Proxy      string         `yaml:"socks5_proxy"` // Optional host:port for routing RPC traffic
}

// NativeCurrency describes the chain's gas token
type NativeCurrency struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// RPCURL returns the endpoint the chain client dials.
func (n NetworkConfig) RPCURL() string {
	if len(n.RPCURLs) == 0 {
		return ""
	}
	return n.RPCURLs[0]
}

// SepoliaNetwork returns the Sepolia test network parameters.
func SepoliaNetwork() NetworkConfig {
	return NetworkConfig{
		ChainID:          11155111,
		ChainName:        "Sepolia Test Network",
		RPCURLs:          []string{"https://sepolia.infura.io/v3/YOUR_INFURA_KEY"},
		BlockExplorerURL: "https://sepolia.etherscan.io/",
		NativeCurrency: NativeCurrency{
			Name:     "Sepolia Ether",
			Symbol:   "SEP",
			Decimals: 18,
		},
	}
}
